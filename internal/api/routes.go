package api

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"mark-risk-eval/internal/imagesearch"
	"mark-risk-eval/internal/match"
	"mark-risk-eval/internal/registry"
	"mark-risk-eval/internal/scoring"
	"mark-risk-eval/internal/store"
)

// Config defines server dependencies.
type Config struct {
	DBPath          string
	BrandsPath      string
	CharactersPath  string
	RegistryXMLPath string
	AllowedOrigins  []string
	SilentDB        bool
	Policy          scoring.Policy
	ImageSearch     imagesearch.Config
}

// Server wires HTTP handlers with persistence, matching, and scoring.
type Server struct {
	db              *store.Database
	policy          scoring.Policy
	evaluator       *scoring.Evaluator
	checker         *registry.Checker
	imageClient     *imagesearch.Client
	brandsPath      string
	charactersPath  string
	registryXMLPath string
	allowedOrigins  []string
	evalNotifier    *EvaluationNotifier
	jobMu           sync.Mutex
	activeJob       *evaluationJob
}

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("db path required")
	}
	db, err := store.Open(cfg.DBPath, cfg.SilentDB)
	if err != nil {
		return nil, err
	}

	policy := cfg.Policy
	if policy.RedThreshold == 0 {
		policy = scoring.DefaultPolicy()
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("scoring policy: %w", err)
	}

	brandsPath := cfg.BrandsPath
	if brandsPath == "" {
		brandsPath = filepath.Join("internal", "scoring", "known_brands.json")
	}
	charactersPath := cfg.CharactersPath
	if charactersPath == "" {
		charactersPath = filepath.Join("internal", "scoring", "known_characters.json")
	}

	detector, err := scoring.NewBrandDetector(brandsPath, charactersPath)
	if err != nil {
		return nil, fmt.Errorf("brand detector: %w", err)
	}
	evaluator, err := scoring.NewEvaluator(policy, detector, logrus.StandardLogger())
	if err != nil {
		return nil, err
	}

	checker := registry.NewChecker(registry.NewLocalRegistry(db), policy.Scorer(), policy.MaxMatches, logrus.StandardLogger())

	var imageClient *imagesearch.Client
	if strings.TrimSpace(cfg.ImageSearch.APIKey) == "" {
		logrus.Info("reverse image search disabled - no API key configured")
	} else {
		client, err := imagesearch.NewClient(cfg.ImageSearch)
		if err != nil {
			return nil, fmt.Errorf("image search client: %w", err)
		}
		imageClient = client
		logrus.WithFields(logrus.Fields{
			"ttl":     cfg.ImageSearch.CacheTTL,
			"timeout": cfg.ImageSearch.Timeout,
		}).Info("reverse image search enabled")
	}

	return &Server{
		db:              db,
		policy:          policy,
		evaluator:       evaluator,
		checker:         checker,
		imageClient:     imageClient,
		brandsPath:      brandsPath,
		charactersPath:  charactersPath,
		registryXMLPath: cfg.RegistryXMLPath,
		allowedOrigins:  cfg.AllowedOrigins,
		evalNotifier:    NewEvaluationNotifier(),
	}, nil
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)

	api := r.Group("/api")
	{
		api.POST("/check", s.handleCheck)
		api.POST("/image-search", s.handleImageSearch)
		api.POST("/sessions", s.handleCreateSession)
		api.GET("/sessions", s.handleListSessions)
		api.GET("/sessions/:id", s.handleGetSession)
		api.DELETE("/sessions/:id", s.handleDeleteSession)
		api.GET("/sessions/:id/products", s.handleListProducts)
		api.POST("/sessions/:id/products", s.handleAddProducts)
		api.POST("/evaluate", s.handleEvaluate)
		api.GET("/evaluate/status", s.handleEvaluateStatus)
		api.DELETE("/evaluate/:jobID", s.handleCancelEvaluate)
		api.GET("/evaluate/stream", s.handleEvaluateStream)
		api.GET("/results", s.handleResults)
		api.GET("/export.csv", s.handleExportCSV)
		api.GET("/export.json", s.handleExportJSON)
		api.POST("/registry/import", s.handleRegistryImport)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	registryRecords, err := s.db.CountRegistryRecords()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"red_threshold":        s.policy.RedThreshold,
		"yellow_threshold":     s.policy.YellowThreshold,
		"similarity_threshold": s.policy.SimilarityThreshold,
		"near_exact":           s.policy.NearExact,
		"image_hit_limit":      s.policy.ImageHitLimit,
		"max_matches":          s.policy.MaxMatches,
		"registry_records":     registryRecords,
		"image_search_enabled": s.imageClient != nil,
		"brands_path":          s.brandsPath,
		"characters_path":      s.charactersPath,
	})
}

func (s *Server) handleCheck(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	if match.Normalize(req.Designation) == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("designation is required"))
		return
	}
	result := s.checker.Check(c.Request.Context(), req.Designation, req.Classes)
	assessment := s.evaluator.Evaluate(scoring.Product{
		Article:          "adhoc",
		Name:             req.Designation,
		Classes:          req.Classes,
		Source:           req.Source,
		TrademarkResults: []registry.CheckResult{result},
	})
	c.JSON(http.StatusOK, CheckResponse{Assessment: assessment, Trademark: result})
}

func (s *Server) handleImageSearch(c *gin.Context) {
	if s.imageClient == nil {
		s.renderError(c, http.StatusServiceUnavailable, errors.New("reverse image search is not configured"))
		return
	}
	var req ImageSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.ImageURL) == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("image_url is required"))
		return
	}
	summary, err := s.imageClient.Reverse(c.Request.Context(), req.ImageURL)
	if err != nil {
		s.renderError(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("name is required"))
		return
	}

	session := &store.CheckSession{
		ID:     uuid.NewString(),
		Name:   name,
		Status: store.SessionStatusNew,
	}
	if err := s.db.CreateSession(session); err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	if len(req.Products) > 0 {
		rows, err := buildSessionProducts(session.ID, 0, req.Products)
		if err != nil {
			s.renderError(c, http.StatusBadRequest, err)
			return
		}
		if err := s.db.AddSessionProducts(session.ID, rows); err != nil {
			s.renderError(c, http.StatusInternalServerError, err)
			return
		}
		session.TotalItems = len(rows)
	}
	logrus.WithFields(logrus.Fields{
		"session":  session.ID,
		"name":     session.Name,
		"products": session.TotalItems,
	}).Info("check session created")
	c.JSON(http.StatusCreated, SessionFromModel(*session))
}

func (s *Server) handleListSessions(c *gin.Context) {
	page, pageSize := pagination(c, 25)
	rows, total, err := s.db.ListSessions(page*pageSize, pageSize)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]SessionDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, SessionFromModel(row))
	}
	c.JSON(http.StatusOK, SessionsResponse{Items: dtos, Total: total})
}

func (s *Server) handleGetSession(c *gin.Context) {
	session, ok := s.fetchSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SessionFromModel(*session))
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	session, ok := s.fetchSession(c)
	if !ok {
		return
	}

	s.jobMu.Lock()
	running := s.activeJob != nil && s.activeJob.sessionID == session.ID
	s.jobMu.Unlock()
	if running {
		s.renderError(c, http.StatusConflict, errors.New("session has a running evaluation"))
		return
	}

	if err := s.db.DeleteSession(session.ID); err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) handleListProducts(c *gin.Context) {
	session, ok := s.fetchSession(c)
	if !ok {
		return
	}
	page, pageSize := pagination(c, 100)
	rows, total, err := s.db.ListSessionProducts(session.ID, page*pageSize, pageSize)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, ProductFromModel(row))
	}
	c.JSON(http.StatusOK, ProductsResponse{Items: dtos, Total: total})
}

func (s *Server) handleAddProducts(c *gin.Context) {
	session, ok := s.fetchSession(c)
	if !ok {
		return
	}
	var req AddProductsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	if len(req.Products) == 0 {
		s.renderError(c, http.StatusBadRequest, errors.New("products are required"))
		return
	}

	rows, err := buildSessionProducts(session.ID, session.TotalItems, req.Products)
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	if err := s.db.AddSessionProducts(session.ID, rows); err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": len(rows), "total_items": session.TotalItems + len(rows)})
}

func (s *Server) handleEvaluate(c *gin.Context) {
	var req EvaluateRequest
	if c.Request.Body != nil {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			s.renderError(c, http.StatusBadRequest, err)
			return
		}
	}
	if strings.TrimSpace(req.SessionID) == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("session_id is required"))
		return
	}

	session, err := s.db.GetSession(req.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("session %s not found", req.SessionID))
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}

	_, total, err := s.db.ListSessionProducts(session.ID, 0, 1)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	if total == 0 {
		s.renderError(c, http.StatusBadRequest, errors.New("session has no products to evaluate"))
		return
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	if s.activeJob != nil {
		s.renderError(c, http.StatusConflict, errors.New("evaluation already running"))
		return
	}

	job, err := s.startEvaluation(req, session, total)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusAccepted, StartEvaluationResponse{
		JobID:     job.id,
		SessionID: session.ID,
		Total:     job.total,
		StartedAt: job.startedAt,
	})
}

func (s *Server) handleCancelEvaluate(c *gin.Context) {
	jobID := strings.TrimSpace(c.Param("jobID"))
	if jobID == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("job id required"))
		return
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	if s.activeJob == nil {
		s.renderError(c, http.StatusNotFound, errors.New("no evaluation running"))
		return
	}
	if s.activeJob.id != jobID {
		s.renderError(c, http.StatusNotFound, errors.New("job not found"))
		return
	}

	s.activeJob.cancel()
	logrus.WithField("job", jobID).Info("evaluation cancellation requested")
	s.evalNotifier.Broadcast(EvaluationEvent{
		Type:      "progress",
		JobID:     s.activeJob.id,
		SessionID: s.activeJob.sessionID,
		Total:     s.activeJob.total,
		Message:   "cancellation requested",
	})

	c.JSON(http.StatusAccepted, gin.H{"status": "cancelling"})
}

func (s *Server) handleEvaluateStatus(c *gin.Context) {
	s.jobMu.Lock()
	job := s.activeJob
	s.jobMu.Unlock()

	status := s.evalNotifier.LastStatus()

	resp := EvaluateStatusResponse{Running: job != nil}
	if job != nil {
		resp.JobID = job.id
		resp.SessionID = job.sessionID
		resp.Total = job.total
	}
	if status != nil {
		resp.State = status.Type
		resp.Message = status.Message
		if status.Processed != 0 {
			resp.Processed = status.Processed
		}
		if status.Total != 0 {
			resp.Total = status.Total
		}
		if status.SessionID != "" {
			resp.SessionID = status.SessionID
		}
		if status.Assessment != nil {
			copyAssessment := *status.Assessment
			resp.LastAssessment = &copyAssessment
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleEvaluateStream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.evalNotifier.Register(conn)
	logrus.WithField("remote", conn.RemoteAddr().String()).Info("evaluation websocket connected")
	defer s.evalNotifier.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("remote", conn.RemoteAddr().String()).Info("evaluation websocket closed")
			} else {
				logrus.WithError(err).Warn("evaluation websocket unexpected close")
			}
			break
		}
	}
}

func (s *Server) handleResults(c *gin.Context) {
	page, pageSize := pagination(c, 100)
	rows, total, err := s.db.ListAssessments(store.AssessmentQuery{
		SessionID: strings.TrimSpace(c.Query("session_id")),
		Status:    strings.TrimSpace(c.Query("status")),
		Query:     strings.TrimSpace(c.Query("q")),
		Sort:      strings.TrimSpace(c.Query("sort")),
		Offset:    page * pageSize,
		Limit:     pageSize,
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]AssessmentDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, FromModel(row))
	}
	c.JSON(http.StatusOK, AssessmentsResponse{Items: dtos, Total: total})
}

func (s *Server) handleExportCSV(c *gin.Context) {
	rows, _, err := s.db.ListAssessments(store.AssessmentQuery{
		SessionID: strings.TrimSpace(c.Query("session_id")),
		Status:    strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=risk-assessment-export.csv")
	c.Header("Content-Type", "text/csv")

	writer := csv.NewWriter(c.Writer)
	headers := []string{"session_id", "article", "name", "overall_status", "overall_score", "summary", "recommendations", "requires_manual_check", "manual_check_items", "processing_time_ms"}
	if err := writer.Write(headers); err != nil {
		return
	}
	for _, row := range rows {
		line := []string{
			row.SessionID,
			row.Article,
			row.Name,
			row.OverallStatus,
			fmt.Sprintf("%.1f", row.OverallScore),
			row.Summary,
			strings.Join(row.Recommendations(), "|"),
			strconv.FormatBool(row.RequiresManualCheck),
			strings.Join(row.ManualItems(), "|"),
			strconv.FormatInt(row.ProcessingTimeMs, 10),
		}
		if err := writer.Write(line); err != nil {
			return
		}
	}
	writer.Flush()
}

func (s *Server) handleExportJSON(c *gin.Context) {
	rows, _, err := s.db.ListAssessments(store.AssessmentQuery{
		SessionID: strings.TrimSpace(c.Query("session_id")),
		Status:    strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]AssessmentDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, FromModel(row))
	}
	c.Header("Content-Disposition", "attachment; filename=risk-assessment-export.json")
	c.JSON(http.StatusOK, dtos)
}

// RegistryImportRequest points the ingester at a bulk XML file on disk.
type RegistryImportRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleRegistryImport(c *gin.Context) {
	var req RegistryImportRequest
	if c.Request.Body != nil {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			s.renderError(c, http.StatusBadRequest, err)
			return
		}
	}
	path := strings.TrimSpace(req.Path)
	if path == "" {
		path = s.registryXMLPath
	}
	if path == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("path is required"))
		return
	}

	count, err := registry.Ingest(registry.IngestOptions{
		Path:    path,
		DB:      s.db,
		Context: c.Request.Context(),
		Progress: func(count int) {
			logrus.WithField("records", count).Info("registry import progress")
		},
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	logrus.WithFields(logrus.Fields{"path": path, "records": count}).Info("registry import finished")
	c.JSON(http.StatusOK, gin.H{"imported": count})
}

func (s *Server) fetchSession(c *gin.Context) (*store.CheckSession, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("session id required"))
		return nil, false
	}
	session, err := s.db.GetSession(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("session %s not found", id))
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return nil, false
	}
	return session, true
}

func buildSessionProducts(sessionID string, startIndex int, products []scoring.Product) ([]store.SessionProduct, error) {
	rows := make([]store.SessionProduct, 0, len(products))
	for i, product := range products {
		article := strings.TrimSpace(product.Article)
		if article == "" {
			return nil, fmt.Errorf("product %d: article is required", i+1)
		}
		if match.Normalize(product.Name) == "" {
			return nil, fmt.Errorf("product %s: name is required", article)
		}
		payload, err := json.Marshal(product)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", article, err)
		}
		rows = append(rows, store.SessionProduct{
			SessionID:   sessionID,
			Article:     article,
			Name:        strings.TrimSpace(product.Name),
			RowIndex:    startIndex + i + 1,
			PayloadJSON: string(payload),
		})
	}
	return rows, nil
}

func pagination(c *gin.Context, defaultSize int) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 0 {
		page = 0
	}
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	if pageSize <= 0 {
		pageSize = defaultSize
	}
	return page, pageSize
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
