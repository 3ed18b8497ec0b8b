package http_common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Every endpoint answers with the same envelope: a success flag, an optional
// message, and the handler's payload merged in at the top level. List
// endpoints attach a pagination block.

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Pagination struct {
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

// NewPagination derives the page math from the unpaginated total. An empty
// result reports zero pages.
func NewPagination(page, perPage, total int) Pagination {
	pages := (total + perPage - 1) / perPage
	return Pagination{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

// OK writes a 200 envelope with the payload fields merged in.
func OK(ctx *gin.Context, payload gin.H) {
	JSON(ctx, http.StatusOK, payload)
}

func JSON(ctx *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	ctx.JSON(status, body)
}

func Error(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, ErrorResponse{Success: false, Message: message})
}

func AbortError(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, ErrorResponse{Success: false, Message: message})
}
