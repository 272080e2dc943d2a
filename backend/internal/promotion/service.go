package promotion

import (
	"context"
	"errors"
	"sort"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"school_sms/backend/internal/shared"
)

// Service is the promotion engine facade the gateway talks to. It composes
// the indexer, aggregator, ranker, and executor, and reports failures as
// gRPC status errors so the transport layer can map them uniformly.
type Service struct {
	indexer   *Indexer
	allocator *RollAllocator
	executor  *Executor
	cfg       shared.PromotionConfig
}

// NewService wires the engine against its collaborators. audit may be nil.
func NewService(directory StudentDirectory, source ResultSource, sink MutationSink, audit AuditSink, cfg shared.PromotionConfig) *Service {
	allocator := NewRollAllocator(directory, cfg.RollProbeLimit)
	return &Service{
		indexer:   NewIndexer(directory, source),
		allocator: allocator,
		executor:  NewExecutor(directory, sink, allocator, audit),
		cfg:       cfg,
	}
}

// PreviewRequest identifies one promotion run: which exam, which source
// class, where passed students go, and the pass threshold for this run.
type PreviewRequest struct {
	SchoolID      string
	ExamName      string
	SourceClass   string
	TargetClass   string
	PassThreshold float64 // 0 means the configured default
}

// CommitRequest is a preview plus an optional operator-selected subset of
// candidates to commit. An empty StudentKeys commits every passed candidate.
type CommitRequest struct {
	PreviewRequest
	StudentKeys []string
}

// SingleRequest promotes one student, typically as a retry of a failed
// batch entry. DesiredRoll is used as the preferred roll number.
type SingleRequest struct {
	SchoolID    string
	StudentKey  string
	StudentName string
	TargetClass string
	DesiredRoll int32
}

func (r *PreviewRequest) validate() error {
	if r.SchoolID == "" {
		return status.Error(codes.InvalidArgument, "school_id is required")
	}
	if r.ExamName == "" {
		return status.Error(codes.InvalidArgument, "exam_name is required")
	}
	if r.SourceClass == "" {
		return status.Error(codes.InvalidArgument, "source_class is required")
	}
	if r.TargetClass == "" {
		return status.Error(codes.InvalidArgument, "target_class is required")
	}
	if r.PassThreshold < 0 || r.PassThreshold > 100 {
		return status.Error(codes.InvalidArgument, "pass_threshold must be between 0 and 100")
	}
	return nil
}

func (s *Service) policyFor(req *PreviewRequest) shared.PromotionPolicy {
	threshold := req.PassThreshold
	if threshold == 0 {
		threshold = s.cfg.DefaultPassThreshold
	}
	return shared.PromotionPolicy{PassThresholdPercent: threshold}
}

// Preview evaluates and ranks the cohort for the requested exam and class
// without committing anything. The returned candidates are a computed
// view: any change to the filters or threshold invalidates them.
func (s *Service) Preview(ctx context.Context, req PreviewRequest) ([]shared.PromotionCandidate, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	candidates, err := s.indexer.BuildCandidates(queryCtx, req.SchoolID, req.ExamName, req.SourceClass, req.TargetClass)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to build promotion candidates: %v", err)
	}

	EvaluateAll(candidates, s.policyFor(&req))
	AssignRanks(candidates)
	return candidates, nil
}

// Commit evaluates the cohort fresh and promotes the passed candidates
// (optionally restricted to an operator-selected subset), strictly
// sequentially. Precondition failures map to FailedPrecondition and occur
// before any mutation.
func (s *Service) Commit(ctx context.Context, req CommitRequest, actorID string) (*shared.PromotionBatchResult, error) {
	candidates, err := s.Preview(ctx, req.PreviewRequest)
	if err != nil {
		return nil, err
	}

	if len(req.StudentKeys) > 0 {
		selected := make(map[string]bool, len(req.StudentKeys))
		for _, key := range req.StudentKeys {
			selected[key] = true
		}
		var subset []shared.PromotionCandidate
		for i := range candidates {
			if selected[candidates[i].StudentKey] {
				subset = append(subset, candidates[i])
			}
		}
		candidates = subset
	}

	result, err := s.executor.PromoteAll(ctx, req.SchoolID, req.ExamName, req.SourceClass, req.TargetClass, candidates, actorID)
	if err != nil {
		if errors.Is(err, ErrEmptyCohort) || errors.Is(err, ErrNoEligibleCandidates) {
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		}
		return nil, status.Errorf(codes.Internal, "bulk promotion failed: %v", err)
	}
	return result, nil
}

// PromoteStudent commits a single student, the retry path for a failed
// batch entry. An unresolvable student id fails fast with NotFound; other
// failures come back inside the outcome.
func (s *Service) PromoteStudent(ctx context.Context, req SingleRequest, actorID string) (*shared.PromotionOutcome, error) {
	if req.SchoolID == "" {
		return nil, status.Error(codes.InvalidArgument, "school_id is required")
	}
	if req.StudentKey == "" {
		return nil, status.Error(codes.InvalidArgument, "student_key is required")
	}
	if req.TargetClass == "" {
		return nil, status.Error(codes.InvalidArgument, "target_class is required")
	}

	cand := shared.PromotionCandidate{
		StudentKey:  req.StudentKey,
		StudentName: req.StudentName,
		TargetClass: req.TargetClass,
		Rank:        req.DesiredRoll,
		Passed:      true,
		Status:      shared.StatusPassed,
	}

	outcome := s.executor.PromoteOne(ctx, req.SchoolID, &cand, actorID)
	if outcome.ErrorKind == shared.ErrorNoAuthoritativeRecord {
		return nil, status.Errorf(codes.NotFound, "no directory record for student %s", req.StudentKey)
	}
	return &outcome, nil
}

// OccupiedRolls lists the roll numbers currently in use in a class,
// ascending. Operator-facing sanity view over the allocator's input.
func (s *Service) OccupiedRolls(ctx context.Context, schoolID, className string) ([]int32, error) {
	if schoolID == "" {
		return nil, status.Error(codes.InvalidArgument, "school_id is required")
	}
	if className == "" {
		return nil, status.Error(codes.InvalidArgument, "class is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	occupied, err := s.allocator.OccupiedRolls(queryCtx, schoolID, className)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to fetch occupied rolls: %v", err)
	}

	rolls := make([]int32, 0, len(occupied))
	for roll := range occupied {
		rolls = append(rolls, roll)
	}
	sort.Slice(rolls, func(i, j int) bool { return rolls[i] < rolls[j] })
	return rolls, nil
}
