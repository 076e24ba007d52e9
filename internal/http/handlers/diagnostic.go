package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/cesizen/cesizen-backend/internal/http/response"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
	"github.com/cesizen/cesizen-backend/internal/services"
)

type DiagnosticHandler struct {
	log               *logger.Logger
	diagnosticService services.DiagnosticService
}

func NewDiagnosticHandler(log *logger.Logger, diagnosticService services.DiagnosticService) *DiagnosticHandler {
	return &DiagnosticHandler{log: log.With("handler", "DiagnosticHandler"), diagnosticService: diagnosticService}
}

func (dh *DiagnosticHandler) Events(c *gin.Context) {
	response.RespondOK(c, gin.H{"events": dh.diagnosticService.Catalog()})
}

func (dh *DiagnosticHandler) Questions(c *gin.Context) {
	questions, err := dh.diagnosticService.Questions(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, dh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"questions": questions})
}

// Score runs the scoring function without storing anything.
func (dh *DiagnosticHandler) Score(c *gin.Context) {
	var req struct {
		Mode      string         `json:"mode"`
		Responses map[string]any `json:"responses"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, dh.log, err)
		return
	}
	result, err := dh.diagnosticService.Preview(c.Request.Context(), req.Mode, req.Responses)
	if err != nil {
		response.RespondAPIError(c, dh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"result": result})
}

func (dh *DiagnosticHandler) Submit(c *gin.Context) {
	var req struct {
		Title     string         `json:"title"`
		Mode      string         `json:"mode"`
		Responses map[string]any `json:"responses"`
		IsPublic  bool           `json:"isPublic"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, dh.log, err)
		return
	}
	created, err := dh.diagnosticService.Submit(c.Request.Context(), principal(c), services.DiagnosticInput{
		Title:     req.Title,
		Mode:      req.Mode,
		Responses: req.Responses,
		IsPublic:  req.IsPublic,
	})
	if err != nil {
		response.RespondAPIError(c, dh.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"diagnostic": created})
}

func (dh *DiagnosticHandler) ListMine(c *gin.Context) {
	items, err := dh.diagnosticService.ListMine(c.Request.Context(), principal(c))
	if err != nil {
		response.RespondAPIError(c, dh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"diagnostics": items})
}

func (dh *DiagnosticHandler) ListPublic(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		response.RespondAPIError(c, dh.log, err)
		return
	}
	items, err := dh.diagnosticService.ListPublic(c.Request.Context(), principal(c), limit)
	if err != nil {
		response.RespondAPIError(c, dh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"diagnostics": items})
}

func (dh *DiagnosticHandler) Get(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, dh.log, err)
		return
	}
	item, err := dh.diagnosticService.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		response.RespondAPIError(c, dh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"diagnostic": item})
}

func (dh *DiagnosticHandler) Update(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, dh.log, err)
		return
	}
	var req struct {
		Title    *string `json:"title"`
		IsPublic *bool   `json:"isPublic"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, dh.log, err)
		return
	}
	updated, err := dh.diagnosticService.Update(c.Request.Context(), principal(c), id, services.DiagnosticPatch{
		Title:    req.Title,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		response.RespondAPIError(c, dh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"diagnostic": updated})
}

func (dh *DiagnosticHandler) Delete(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, dh.log, err)
		return
	}
	if err := dh.diagnosticService.Delete(c.Request.Context(), principal(c), id); err != nil {
		response.RespondAPIError(c, dh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (dh *DiagnosticHandler) ListAllQuestions(c *gin.Context) {
	questions, err := dh.diagnosticService.ListAllQuestions(c.Request.Context(), principal(c))
	if err != nil {
		response.RespondAPIError(c, dh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"questions": questions})
}

func (dh *DiagnosticHandler) CreateQuestion(c *gin.Context) {
	var in services.QuestionInput
	if err := bindJSON(c, &in); err != nil {
		response.RespondAPIError(c, dh.log, err)
		return
	}
	created, err := dh.diagnosticService.CreateQuestion(c.Request.Context(), principal(c), in)
	if err != nil {
		response.RespondAPIError(c, dh.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"question": created})
}

func (dh *DiagnosticHandler) UpdateQuestion(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, dh.log, err)
		return
	}
	var in services.QuestionInput
	if err := bindJSON(c, &in); err != nil {
		response.RespondAPIError(c, dh.log, err)
		return
	}
	updated, err := dh.diagnosticService.UpdateQuestion(c.Request.Context(), principal(c), id, in)
	if err != nil {
		response.RespondAPIError(c, dh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"question": updated})
}

func (dh *DiagnosticHandler) DeleteQuestion(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, dh.log, err)
		return
	}
	if err := dh.diagnosticService.DeleteQuestion(c.Request.Context(), principal(c), id); err != nil {
		response.RespondAPIError(c, dh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
