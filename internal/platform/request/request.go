// Copyright (c) 2026 Aria. All rights reserved.

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/soramiya/aria/internal/platform/apperr"
	"github.com/soramiya/aria/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
ID retrieves a named URL parameter (UUID/Slug) from the request.
*/
func ID(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

// maxMultipartMemory caps the in-memory portion of multipart parsing;
// larger parts spill to temporary files.
const maxMultipartMemory = 8 << 20

/*
FormFile extracts a named file part from a multipart upload.

Returns:
  - multipart.File, *multipart.FileHeader on success
  - error: apperr.ValidationError if the form is malformed or the part is missing
*/
func FormFile(request *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	if err := request.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, nil, apperr.ValidationError("Invalid multipart form")
	}

	file, header, err := request.FormFile(field)
	if err != nil {
		return nil, nil, apperr.ValidationError("Missing file upload: " + field)
	}

	return file, header, nil
}
