package controller

import (
	"io"
	"net/http"
	"strings"

	"athena-gateway/internal/middleware"
	"athena-gateway/internal/model"
	"athena-gateway/internal/service"
	"athena-gateway/internal/utils"
	"athena-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type QueryController struct {
	queryService service.QueryService
	catalog      *service.TemplateCatalog
	validator    *validator.Validate
}

func NewQueryController(queryService service.QueryService, catalog *service.TemplateCatalog) *QueryController {
	return &QueryController{
		queryService: queryService,
		catalog:      catalog,
		validator:    validator.New(),
	}
}

// ExecuteQuery godoc
// @Summary Execute an ad-hoc SQL query
// @Description Submits a read-only SQL query to the engine, waits for it to
// reach a terminal state (bounded by maxWaitTime) and returns the normalized
// result rows inline.
// @Tags queries
// @Accept json
// @Produce json
// @Param request body model.QueryRequest true "Query execution request"
// @Success 200 {object} response.StandardResponse{data=model.QueryOutcome}
// @Failure 400 {object} response.StandardResponse
// @Failure 408 {object} response.StandardResponse
// @Failure 500 {object} response.StandardResponse
// @Router /query [post]
func (qc *QueryController) ExecuteQuery(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	var req model.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse(
			utils.ErrCodeInvalidJSON,
			"Invalid request body: "+err.Error(),
			"",
			correlationID,
		))
		return
	}

	if err := qc.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse(
			utils.ErrCodeValidationFailed,
			err.Error(),
			"",
			correlationID,
		))
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, response.ErrorResponse(
			utils.ErrCodeInvalidParameters,
			"Query is required",
			"",
			correlationID,
		))
		return
	}

	result, err := qc.queryService.ExecuteQuery(c.Request.Context(), &req)
	if err != nil {
		qc.respondError(c, err, correlationID)
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse(result, correlationID))
}

// ExecuteTemplateQuery godoc
// @Summary Execute a predefined query template
// @Description Looks up the named template in the catalog and executes it.
// The request body is optional; when present it may override maxWaitTime,
// outputLocation and maxRows.
// @Tags queries
// @Accept json
// @Produce json
// @Param queryType path string true "Template name"
// @Success 200 {object} response.StandardResponse{data=model.QueryOutcome}
// @Failure 400 {object} response.StandardResponse
// @Failure 404 {object} response.StandardResponse
// @Router /query/{queryType} [post]
func (qc *QueryController) ExecuteTemplateQuery(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)
	queryType := c.Param("queryType")

	// Template routes accept an empty body; only parse what is present.
	var req model.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, response.ErrorResponse(
			utils.ErrCodeInvalidJSON,
			"Invalid request body: "+err.Error(),
			"",
			correlationID,
		))
		return
	}
	req.Query = ""

	if err := qc.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse(
			utils.ErrCodeValidationFailed,
			err.Error(),
			"",
			correlationID,
		))
		return
	}

	result, err := qc.queryService.ExecuteTemplate(c.Request.Context(), queryType, &req)
	if err != nil {
		qc.respondError(c, err, correlationID)
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse(result, correlationID))
}

// ExecuteBatch godoc
// @Summary Execute multiple queries concurrently
// @Description Runs every item in the batch concurrently and returns one
// result per item, in the order submitted. Individual failures do not abort
// the batch.
// @Tags queries
// @Accept json
// @Produce json
// @Param request body model.BatchQueryRequest true "Batch query request"
// @Success 200 {object} response.StandardResponse{data=model.BatchOutcome}
// @Failure 400 {object} response.StandardResponse
// @Router /batch [post]
func (qc *QueryController) ExecuteBatch(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	var req model.BatchQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse(
			utils.ErrCodeInvalidJSON,
			"Invalid request body: "+err.Error(),
			"",
			correlationID,
		))
		return
	}

	if err := qc.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse(
			utils.ErrCodeValidationFailed,
			err.Error(),
			"",
			correlationID,
		))
		return
	}

	result, err := qc.queryService.ExecuteBatch(c.Request.Context(), &req)
	if err != nil {
		qc.respondError(c, err, correlationID)
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse(result, correlationID))
}

// ListQueryTypes godoc
// @Summary List available query templates
// @Produce json
// @Success 200 {object} response.StandardResponse
// @Router /queries [get]
func (qc *QueryController) ListQueryTypes(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	c.JSON(http.StatusOK, response.SuccessResponse(gin.H{
		"queryTypes": qc.catalog.Names(),
		"categories": qc.catalog.Categories(),
		"usage":      "POST /query/{queryType} to execute a predefined query, POST /query with a body to run custom SQL",
	}, correlationID))
}

func (qc *QueryController) respondError(c *gin.Context, err error, correlationID string) {
	if appErr, ok := utils.AsAppError(err); ok {
		c.JSON(utils.GetErrorStatus(appErr), response.ErrorResponseFromAppError(appErr, correlationID))
		return
	}
	c.JSON(http.StatusInternalServerError, response.InternalServerErrorResponse(correlationID))
}
