// Package dto holds the request bodies accepted by the v1 API.
package dto

import "github.com/cuboulder-se-research/em-assist/application/service"

// ListCandidatesRequest is the body of POST /api/v1/candidates.
// Line is optional and defaults to the first line.
type ListCandidatesRequest struct {
	FilePath string `json:"filePath"`
	Line     *int   `json:"line,omitempty"`
}

// ToListRequest converts the body to an application request.
func (r ListCandidatesRequest) ToListRequest() service.ListRequest {
	return service.ListRequest{FilePath: r.FilePath, Line: r.Line}
}
