package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/santupramanik23/my-guide-backend/src/types"
)

// respondError writes err with the status its kind maps to. Internal failures
// are logged and answered with a generic message.
func respondError(ctx *gin.Context, err error) {
	status := types.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("Error on %s %s: %s\n", ctx.Request.Method, ctx.FullPath(), err.Error())
	}
	ctx.JSON(status, gin.H{"error": types.PublicMessage(err)})
}

func bindID(ctx *gin.Context) (uuid.UUID, bool) {
	var params types.UUIDRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return uuid.Nil, false
	}
	id, err := uuid.Parse(params.ID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func includeDeleted(ctx *gin.Context) bool {
	var filters types.ReadQueryFilters
	if err := ctx.ShouldBindQuery(&filters); err != nil {
		return false
	}
	return filters.IncludeDeleted
}
