package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jansetu/backend/internal/engine"
	"github.com/jansetu/backend/internal/logger"
	"github.com/jansetu/backend/internal/models"
	"gorm.io/gorm"
)

type CaseController struct {
	engine *engine.Engine
	store  engine.CaseStore
	db     *gorm.DB
}

func NewCaseController(eng *engine.Engine, store engine.CaseStore, db *gorm.DB) *CaseController {
	return &CaseController{engine: eng, store: store, db: db}
}

type CreateCaseRequest struct {
	CaseType    string `json:"caseType" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Region      string `json:"region" binding:"required"`
	Priority    string `json:"priority" binding:"required"`
}

type TransitionRequest struct {
	ToStatus string `json:"toStatus" binding:"required"`
	Notes    string `json:"notes"`
}

type AssignRequest struct {
	OfficerID string `json:"officerId"`
}

type PriorityRequest struct {
	Priority string `json:"priority" binding:"required"`
}

type VerifyRequest struct {
	Outcome string `json:"outcome" binding:"required"`
	Notes   string `json:"notes"`
}

type CommentRequest struct {
	Notes string `json:"notes" binding:"required"`
}

func (cc *CaseController) CreateCase(c *gin.Context) {
	var req CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, actorID := actorFromContext(c)
	created, err := cc.engine.CreateCase(engine.CreateCaseInput{
		CaseType:    models.CaseType(req.CaseType),
		Title:       req.Title,
		Description: req.Description,
		Region:      req.Region,
		Priority:    models.CasePriority(req.Priority),
		SubmittedBy: actorID,
		ActorRole:   role,
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (cc *CaseController) GetCase(c *gin.Context) {
	found, err := cc.engine.GetCase(c.Param("id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (cc *CaseController) GetHistory(c *gin.Context) {
	events, err := cc.engine.History(c.Param("id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (cc *CaseController) ListCases(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}

	filter := engine.CaseFilter{
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if v := c.Query("caseType"); v != "" {
		ct := models.CaseType(v)
		filter.CaseType = &ct
	}
	if v := c.Query("status"); v != "" {
		st := models.CaseStatus(v)
		filter.Status = &st
	}
	if v := c.Query("assignedTo"); v != "" {
		filter.AssignedTo = &v
	}
	if v := c.Query("region"); v != "" {
		filter.Region = &v
	}

	var bucket *engine.SLABucket
	if v := c.Query("slaBucket"); v != "" {
		b := engine.SLABucket(v)
		bucket = &b
		// bucket membership is evaluated per case; fetch the whole filter
		// match and paginate after classification
		filter.Limit = 0
		filter.Offset = 0
	}

	cases, err := cc.engine.ListCases(filter, bucket)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	total, err := cc.engine.CountCases(filter)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	if bucket != nil {
		total = int64(len(cases))
		start := (page - 1) * limit
		if start > len(cases) {
			start = len(cases)
		}
		end := start + limit
		if end > len(cases) {
			end = len(cases)
		}
		cases = cases[start:end]
	}

	c.JSON(http.StatusOK, gin.H{
		"cases": cases,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

func (cc *CaseController) Transition(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, actorID := actorFromContext(c)
	updated, err := cc.engine.Transition(c.Param("id"), models.CaseStatus(req.ToStatus), role, actorID, req.Notes)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Assign sets the case officer. Without an explicit officerId the balancer
// picks the least-loaded eligible executive in the case's region.
func (cc *CaseController) Assign(c *gin.Context) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, actorID := actorFromContext(c)
	id := c.Param("id")

	if req.OfficerID != "" {
		updated, err := cc.engine.Assign(id, req.OfficerID, role, actorID)
		if err != nil {
			respondEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
		return
	}

	candidates, err := cc.eligibleCandidates(id)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	updated, err := cc.engine.AutoAssign(id, candidates, nil, role, actorID)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// eligibleCandidates builds the balancer input: executives in the case's
// region (all executives when none match), with their open-case workloads.
func (cc *CaseController) eligibleCandidates(caseID string) ([]engine.Candidate, error) {
	target, err := cc.engine.GetCase(caseID)
	if err != nil {
		return nil, err
	}

	var officers []models.User
	q := cc.db.Where("role = ? AND officer_code IS NOT NULL", models.RoleExecutive)
	if err := q.Where("region = ?", target.Region).Find(&officers).Error; err != nil {
		return nil, err
	}
	if len(officers) == 0 {
		if err := cc.db.Where("role = ? AND officer_code IS NOT NULL", models.RoleExecutive).Find(&officers).Error; err != nil {
			return nil, err
		}
	}

	codes := make([]string, 0, len(officers))
	for _, o := range officers {
		codes = append(codes, *o.OfficerCode)
	}
	workloads, err := cc.store.CountOpenByOfficer(codes)
	if err != nil {
		return nil, err
	}

	candidates := make([]engine.Candidate, 0, len(codes))
	for _, code := range codes {
		candidates = append(candidates, engine.Candidate{OfficerID: code, Workload: workloads[code]})
	}
	return candidates, nil
}

func (cc *CaseController) ChangePriority(c *gin.Context) {
	var req PriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, actorID := actorFromContext(c)
	updated, err := cc.engine.ChangePriority(c.Param("id"), models.CasePriority(req.Priority), role, actorID)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (cc *CaseController) SubmitStage1(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, actorID := actorFromContext(c)
	updated, err := cc.engine.SubmitStage1(c.Param("id"), actorID, role, models.VerificationOutcome(req.Outcome), req.Notes)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (cc *CaseController) SubmitStage2(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, actorID := actorFromContext(c)
	updated, err := cc.engine.SubmitStage2(c.Param("id"), actorID, role, models.VerificationOutcome(req.Outcome), req.Notes)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (cc *CaseController) AddComment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, actorID := actorFromContext(c)
	event, err := cc.engine.AddComment(c.Param("id"), role, actorID, req.Notes)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

// actorFromContext reads the identity the auth middleware stored.
func actorFromContext(c *gin.Context) (models.UserRole, string) {
	role := models.RoleCitizen
	if v, exists := c.Get("user_role"); exists {
		if s, ok := v.(string); ok && s != "" {
			role = models.UserRole(s)
		}
	}
	actorID := ""
	if v, exists := c.Get("actor_id"); exists {
		actorID, _ = v.(string)
	}
	return role, actorID
}

// respondEngineError maps the engine's typed results onto HTTP statuses.
// The engine never does this itself.
func respondEngineError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrUnknownCaseType),
		errors.Is(err, engine.ErrInvalidStatus),
		errors.Is(err, engine.ErrInvalidPriority),
		errors.Is(err, engine.ErrInvalidOutcome):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrIllegalTransition),
		errors.Is(err, engine.ErrAlreadyTerminal),
		errors.Is(err, engine.ErrVerificationRequired),
		errors.Is(err, engine.ErrStage1NotComplete),
		errors.Is(err, engine.ErrConcurrentModification):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrNoEligibleOfficers):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	default:
		logger.WithError(err, "case_controller").Error("unhandled engine error")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
