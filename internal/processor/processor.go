/**
 * Problem Processor for the math solver service
 *
 * Runs one uploaded image through the pipeline:
 * decode -> preprocess -> OCR -> line assembly -> solver -> answer parsing
 *
 * The first failing stage ends the request; there are no retries and no
 * partial results.
 */

package processor

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/adverant/nexus/mathsolver/internal/clients"
	"github.com/adverant/nexus/mathsolver/internal/errors"
	"github.com/adverant/nexus/mathsolver/internal/logging"
)

// Solver sends assembled problem text to the language model
type Solver interface {
	Solve(ctx context.Context, problem string) (*clients.SolutionResponse, error)
}

// ProblemProcessorInterface defines the interface used by the HTTP layer
type ProblemProcessorInterface interface {
	ProcessProblem(ctx context.Context, req *ProcessRequest) (*ProcessResult, error)
}

// ProcessorConfig holds processor dependencies
type ProcessorConfig struct {
	OCR    OCREngine
	Solver Solver
	// MaxImagePixels caps decoded image size; zero uses DefaultMaxImagePixels
	MaxImagePixels int
}

// ProcessRequest represents one solve request
type ProcessRequest struct {
	RequestID string
	Filename  string
	Image     []byte
}

// ProcessResult represents a fully solved problem
type ProcessResult struct {
	Problem        string
	Steps          []string
	Answer         string
	ProcessingTime time.Duration
	TokensUsed     int
}

// ProblemProcessor sequences the pipeline stages
type ProblemProcessor struct {
	ocr       OCREngine
	solver    Solver
	maxPixels int
	logger    *logging.Logger
}

// NewProblemProcessor creates a new problem processor
func NewProblemProcessor(cfg *ProcessorConfig) (*ProblemProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if cfg.OCR == nil {
		return nil, fmt.Errorf("OCR engine is required")
	}

	if cfg.Solver == nil {
		return nil, fmt.Errorf("solver is required")
	}

	return &ProblemProcessor{
		ocr:       cfg.OCR,
		solver:    cfg.Solver,
		maxPixels: cfg.MaxImagePixels,
		logger:    logging.NewLogger("ProblemProcessor"),
	}, nil
}

// ProcessProblem runs the full pipeline for one image
func (p *ProblemProcessor) ProcessProblem(ctx context.Context, req *ProcessRequest) (*ProcessResult, error) {
	log := p.logger.With("requestId", req.RequestID)
	log.Info("Processing problem image", "filename", req.Filename, "size", len(req.Image))

	raw, err := DecodeImage(req.Image, p.maxPixels)
	if err != nil {
		return nil, p.fail(log, req.RequestID, "decode", err)
	}

	prepared := Preprocess(raw)
	log.Debug("Image preprocessed",
		"format", raw.Format,
		"width", prepared.Rect.Dx(),
		"height", prepared.Rect.Dy())

	lines, err := p.ocr.Recognize(ctx, prepared)
	if err != nil {
		var pe *errors.PipelineError
		if !stderrors.As(err, &pe) {
			err = errors.NewOCRFailedError(p.ocr.Name(), err)
		}
		return nil, p.fail(log, req.RequestID, "ocr", err)
	}

	problem, err := AssembleLines(lines)
	if err != nil {
		return nil, p.fail(log, req.RequestID, "assemble", err)
	}
	log.Info("Problem text recognized", "lines", len(lines), "textLength", len(problem))

	solution, err := p.solver.Solve(ctx, problem)
	if err != nil {
		return nil, p.fail(log, req.RequestID, "solve", err)
	}

	parsed := ParseAnswer(solution.Content)
	log.Info("Problem solved",
		"steps", len(parsed.Steps),
		"answerFound", parsed.FinalAnswer != AnswerNotFound,
		"tokensUsed", solution.TokensUsed,
		"elapsed", solution.Elapsed)

	return &ProcessResult{
		Problem:        problem,
		Steps:          parsed.Steps,
		Answer:         parsed.FinalAnswer,
		ProcessingTime: solution.Elapsed,
		TokensUsed:     solution.TokensUsed,
	}, nil
}

func (p *ProblemProcessor) fail(log *logging.Logger, requestID, stage string, err error) error {
	var pe *errors.PipelineError
	if stderrors.As(err, &pe) {
		pe.WithRequestID(requestID)
		log.Warn("Pipeline stage failed", "stage", stage, "code", pe.Code, "error", pe.Message)
		return err
	}
	log.Error("Pipeline stage failed", "stage", stage, "error", err)
	return err
}
