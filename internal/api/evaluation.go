package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"mark-risk-eval/internal/match"
	"mark-risk-eval/internal/registry"
	"mark-risk-eval/internal/scoring"
	"mark-risk-eval/internal/store"
	"mark-risk-eval/internal/util"
)

const evaluationThrottle = 500 * time.Millisecond

// evaluationJob tracks the state of a running evaluation.
type evaluationJob struct {
	id          string
	cancel      context.CancelFunc
	startedAt   time.Time
	total       int64
	sessionID   string
	sessionName string
}

type productResult struct {
	Assessment    store.Assessment
	CheckDuration time.Duration
	TotalDuration time.Duration
	Err           error
}

// startEvaluation launches a new asynchronous evaluation job. The caller must
// hold s.jobMu prior to invoking this function.
func (s *Server) startEvaluation(req EvaluateRequest, session *store.CheckSession, totalProducts int64) (*evaluationJob, error) {
	if s.activeJob != nil {
		return nil, errors.New("evaluation already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	job := &evaluationJob{
		id:          uuid.NewString(),
		cancel:      cancel,
		startedAt:   time.Now().UTC(),
		total:       totalProducts,
		sessionID:   session.ID,
		sessionName: session.Name,
	}

	if err := s.db.SaveJobState(&store.JobState{
		JobID:     job.id,
		SessionID: session.ID,
		Status:    "running",
		Total:     totalProducts,
	}); err != nil {
		job.cancel()
		return nil, fmt.Errorf("save job state: %w", err)
	}
	if err := s.db.UpdateSessionStatus(session.ID, store.SessionStatusRunning); err != nil {
		job.cancel()
		return nil, fmt.Errorf("update session status: %w", err)
	}

	s.activeJob = job
	go s.runEvaluation(ctx, job, req)
	return job, nil
}

func (s *Server) runEvaluation(ctx context.Context, job *evaluationJob, req EvaluateRequest) {
	finishStatus := store.SessionStatusCompleted
	var finishErr error
	totalProcessed := 0
	var lastEvent EvaluationEvent

	// broadcast mirrors every emitted event into lastEvent so the final job
	// state carries the last thing subscribers saw.
	broadcast := func(ev EvaluationEvent) {
		ev.Timestamp = time.Now().UTC()
		lastEvent = ev
		s.evalNotifier.Broadcast(ev)
	}

	defer func() {
		status := finishStatus
		if finishErr != nil && status == store.SessionStatusCompleted {
			status = store.SessionStatusFailed
		}
		state := &store.JobState{
			JobID:     job.id,
			SessionID: job.sessionID,
			Status:    status,
			Processed: totalProcessed,
			Total:     job.total,
			Message:   lastEvent.Message,
		}
		if finishErr != nil {
			state.Message = finishErr.Error()
		}
		if lastEvent.Type != "" {
			if payload, err := json.Marshal(lastEvent); err == nil {
				state.LastEventJSON = string(payload)
			}
		}
		if err := s.db.SaveJobState(state); err != nil {
			logrus.WithError(err).WithField("job", job.id).Warn("save job state")
		}
		if err := s.db.RefreshSessionStats(job.sessionID); err != nil {
			logrus.WithError(err).WithField("session", job.sessionID).Warn("refresh session stats")
		}
		if err := s.db.UpdateSessionStatus(job.sessionID, status); err != nil {
			logrus.WithError(err).WithField("session", job.sessionID).Warn("update session status")
		}
		s.jobMu.Lock()
		s.activeJob = nil
		s.jobMu.Unlock()
	}()

	if job.total <= 0 {
		finishStatus = store.SessionStatusFailed
		broadcast(EvaluationEvent{
			Type:      "error",
			JobID:     job.id,
			SessionID: job.sessionID,
			Message:   "no products available for evaluation",
		})
		return
	}

	skipExisting := req.Resume && !req.Force
	existing := make(map[string]struct{})
	if skipExisting {
		articles, err := s.db.AssessedArticles(job.sessionID)
		if err != nil {
			finishStatus = store.SessionStatusFailed
			finishErr = err
			broadcast(EvaluationEvent{
				Type:      "error",
				JobID:     job.id,
				SessionID: job.sessionID,
				Message:   fmt.Sprintf("load existing assessments: %v", err),
			})
			logrus.WithError(err).Error("load existing assessments")
			return
		}
		for _, article := range articles {
			if key := strings.TrimSpace(article); key != "" {
				existing[key] = struct{}{}
			}
		}
		totalProcessed = len(existing)
	}

	logrus.WithFields(logrus.Fields{
		"job":          job.id,
		"session":      job.sessionID,
		"session_name": job.sessionName,
		"total":        job.total,
		"processed":    totalProcessed,
		"resume":       req.Resume,
		"force":        req.Force,
	}).Info("evaluation job started")

	broadcast(EvaluationEvent{
		Type:      "started",
		JobID:     job.id,
		SessionID: job.sessionID,
		Total:     job.total,
		Processed: totalProcessed,
		Message:   "evaluation started",
	})

	workerCount := determineWorkerCount()
	logrus.WithFields(logrus.Fields{
		"job":     job.id,
		"session": job.sessionID,
		"workers": workerCount,
	}).Info("evaluation worker pool configured")

	chunkSize := req.Limit
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if chunkSize > 2000 {
		chunkSize = 2000
	}

	taskCh := make(chan store.SessionProduct, workerCount*4)
	resultCh := make(chan productResult, workerCount*4)
	errCh := make(chan error, 1)

	var (
		lastEmit     time.Time
		hasPending   bool
		pendingEvent EvaluationEvent
	)

	flush := func(force bool) {
		if !hasPending {
			return
		}
		if !force && !lastEmit.IsZero() && time.Since(lastEmit) < evaluationThrottle {
			return
		}
		ev := pendingEvent
		broadcast(ev)
		lastEmit = time.Now()
		hasPending = false
	}

	var workerWG sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		workerWG.Add(1)
		go func() {
			defer workerWG.Done()
			for task := range taskCh {
				select {
				case <-ctx.Done():
					return
				default:
				}
				res := s.evaluateProduct(ctx, task)
				select {
				case resultCh <- res:
				case <-ctx.Done():
					return
				}
				if res.Err != nil {
					return
				}
			}
		}()
	}

	go func() {
		workerWG.Wait()
		close(resultCh)
	}()

	go func() {
		defer close(taskCh)
		defer close(errCh)
		offset := 0
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			rows, _, err := s.db.ListSessionProducts(job.sessionID, offset, chunkSize)
			if err != nil {
				errCh <- fmt.Errorf("list session products: %w", err)
				return
			}
			if len(rows) == 0 {
				return
			}
			for _, row := range rows {
				if skipExisting {
					if _, ok := existing[strings.TrimSpace(row.Article)]; ok {
						continue
					}
				}
				select {
				case taskCh <- row:
				case <-ctx.Done():
					return
				}
			}
			offset += len(rows)
			if len(rows) < chunkSize {
				return
			}
		}
	}()

	activeResultCh := resultCh
	activeErrCh := errCh

	for activeResultCh != nil || activeErrCh != nil {
		select {
		case <-ctx.Done():
			flush(true)
			finishStatus = store.SessionStatusCancelled
			broadcast(EvaluationEvent{
				Type:      "cancelled",
				JobID:     job.id,
				SessionID: job.sessionID,
				Total:     job.total,
				Processed: totalProcessed,
				Message:   "evaluation cancelled",
			})
			logrus.WithField("job", job.id).Warn("evaluation job cancelled via context")
			return
		case err, ok := <-activeErrCh:
			if !ok {
				activeErrCh = nil
				continue
			}
			if err != nil {
				flush(true)
				finishStatus = store.SessionStatusFailed
				finishErr = err
				broadcast(EvaluationEvent{
					Type:      "error",
					JobID:     job.id,
					SessionID: job.sessionID,
					Message:   err.Error(),
				})
				logrus.WithError(err).Error("list session products")
				job.cancel()
				return
			}
		case res, ok := <-activeResultCh:
			if !ok {
				activeResultCh = nil
				continue
			}
			if res.Err != nil {
				flush(true)
				finishStatus = store.SessionStatusFailed
				finishErr = res.Err
				broadcast(EvaluationEvent{
					Type:      "error",
					JobID:     job.id,
					SessionID: job.sessionID,
					Message:   fmt.Sprintf("evaluate product: %v", res.Err),
				})
				logrus.WithError(res.Err).Error("evaluate product")
				job.cancel()
				return
			}

			saveStart := time.Now()
			assessment := res.Assessment
			if err := s.db.SaveAssessment(&assessment); err != nil {
				flush(true)
				finishStatus = store.SessionStatusFailed
				finishErr = err
				broadcast(EvaluationEvent{
					Type:      "error",
					JobID:     job.id,
					SessionID: job.sessionID,
					Message:   fmt.Sprintf("save assessment: %v", err),
				})
				logrus.WithError(err).Error("save assessment")
				job.cancel()
				return
			}
			saveDuration := time.Since(saveStart)

			if skipExisting {
				existing[assessment.Article] = struct{}{}
			}

			dto := FromModel(assessment)
			totalProcessed++

			pendingEvent = EvaluationEvent{
				Type:       "assessment",
				JobID:      job.id,
				SessionID:  job.sessionID,
				Total:      job.total,
				Processed:  totalProcessed,
				Assessment: &dto,
			}
			hasPending = true
			logrus.WithFields(logrus.Fields{
				"job":           job.id,
				"session":       job.sessionID,
				"article":       assessment.Article,
				"status":        assessment.OverallStatus,
				"check_ms":      res.CheckDuration.Milliseconds(),
				"save_ms":       saveDuration.Milliseconds(),
				"processing_ms": assessment.ProcessingTimeMs,
			}).Debug("evaluation timings")
			flush(false)

			if int64(totalProcessed) >= job.total {
				// Every product has a verdict; stop draining and let the
				// workers wind down via the cancelled context.
				activeResultCh = nil
				activeErrCh = nil
			}
		}
	}

	job.cancel()
	flush(true)

	duration := time.Since(job.startedAt).Round(time.Millisecond)
	broadcast(EvaluationEvent{
		Type:      "complete",
		JobID:     job.id,
		SessionID: job.sessionID,
		Total:     job.total,
		Processed: totalProcessed,
		Message:   fmt.Sprintf("evaluation finished in %s", duration),
	})
	logrus.WithFields(logrus.Fields{
		"job":       job.id,
		"session":   job.sessionID,
		"processed": totalProcessed,
		"duration":  duration,
	}).Info("evaluation job completed")
}

func determineWorkerCount() int {
	workers := runtime.NumCPU()
	if workers < 2 {
		workers = 2
	}
	if workers > 12 {
		workers = 12
	}
	return workers
}

// evaluateProduct runs the full risk pipeline for one stored product: decode
// the submitted payload, fill in the trademark check when the caller did not
// supply one, evaluate, and shape the verdict for persistence.
func (s *Server) evaluateProduct(ctx context.Context, row store.SessionProduct) productResult {
	result := productResult{}

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	var product scoring.Product
	if err := json.Unmarshal([]byte(row.PayloadJSON), &product); err != nil {
		result.Err = fmt.Errorf("decode product %s: %w", row.Article, err)
		return result
	}
	if strings.TrimSpace(product.Article) == "" {
		product.Article = row.Article
	}

	timer := util.StartTimer()

	checkDuration := time.Duration(0)
	if len(product.TrademarkResults) == 0 && s.checker != nil {
		checkStart := time.Now()
		product.TrademarkResults = s.checkDesignations(ctx, product)
		checkDuration = time.Since(checkStart)
	}

	assessment := s.evaluator.Evaluate(product)

	record := store.Assessment{
		SessionID:           row.SessionID,
		Article:             row.Article,
		Name:                product.Name,
		OverallStatus:       assessment.OverallStatus.String(),
		OverallScore:        assessment.OverallScore,
		Summary:             assessment.Summary,
		RequiresManualCheck: assessment.RequiresManualCheck,
		ProcessingTimeMs:    timer.ElapsedMs(),
	}
	record.SetFactors(assessment.Factors)
	record.SetRecommendations(assessment.Recommendations)
	record.SetManualItems(assessment.ManualCheckItems)
	if len(product.TrademarkResults) > 0 {
		payload, _ := json.Marshal(product.TrademarkResults)
		record.TrademarkJSON = string(payload)
	}

	result.Assessment = record
	result.CheckDuration = checkDuration
	result.TotalDuration = timer.Elapsed()
	return result
}

// checkDesignations runs the registry check for the product name and every
// text fragment declared on the product.
func (s *Server) checkDesignations(ctx context.Context, product scoring.Product) []registry.CheckResult {
	seen := make(map[string]struct{})
	var results []registry.CheckResult
	for _, designation := range append([]string{product.Name}, product.TextOnProduct...) {
		key := match.Normalize(designation)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		results = append(results, s.checker.Check(ctx, designation, product.Classes))
	}
	return results
}
