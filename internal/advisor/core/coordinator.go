package core

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/config"
	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/internal/advisor/telemetry"
)

// Coordinator drives a full advisory session: it dispatches the specialist
// roster in dependency order, accumulates findings, assembles them into a
// structured plan and runs bounded repair rounds for anything the schema
// reports missing. It holds no state across sessions.
type Coordinator struct {
	cfg         *config.Config
	logger      *log.Logger
	telemetry   *telemetry.Telemetry
	roster      []AgentSpec
	specialists map[string]Specialist
	assembler   *Assembler
}

// NewCoordinator wires the full stack: model provider, cache, tools and one
// specialist per roster entry. Misconfiguration surfaces here as a
// ConfigurationError before anything is dispatched.
func NewCoordinator(cfg *config.Config, logger *log.Logger, tel *telemetry.Telemetry) (*Coordinator, error) {
	if logger == nil {
		logger = log.Default()
	}
	specialists, err := NewSpecialists(cfg, logger, tel)
	if err != nil {
		return nil, err
	}
	return NewCoordinatorWithSpecialists(cfg, logger, tel, specialists), nil
}

// NewCoordinatorWithSpecialists builds a coordinator over pre-built
// specialists. Tests use this to substitute scripted executors.
func NewCoordinatorWithSpecialists(cfg *config.Config, logger *log.Logger, tel *telemetry.Telemetry, specialists map[string]Specialist) *Coordinator {
	if logger == nil {
		logger = log.Default()
	}
	return &Coordinator{
		cfg:         cfg,
		logger:      logger,
		telemetry:   tel,
		roster:      DefaultRoster(),
		specialists: specialists,
		assembler:   NewAssembler(),
	}
}

// Synthesize runs one advisory session for the given business scenario.
// It returns the validated plan and the session record, or a terminal error:
// a ConfigurationError when the session cannot start, or a CompletionError
// naming the plan fields still unresolved after all repair rounds.
func (c *Coordinator) Synthesize(ctx context.Context, scenario string) (*StructuredPlan, *SessionState, error) {
	if strings.TrimSpace(scenario) == "" {
		return nil, nil, &ConfigurationError{Reason: "scenario must not be empty"}
	}
	for _, spec := range c.roster {
		if _, ok := c.specialists[spec.Role]; !ok {
			return nil, nil, &ConfigurationError{Reason: fmt.Sprintf("no specialist for role %s", spec.Role)}
		}
	}

	session := &SessionState{
		ID:        uuid.New().String(),
		Scenario:  scenario,
		StartedAt: time.Now(),
	}

	tracer := otel.Tracer("advisor")
	ctx, span := tracer.Start(ctx, "coordinator.synthesize")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", session.ID),
		attribute.Int("roster.size", len(c.roster)),
	)

	c.logger.Printf("[COORDINATOR] Starting session %s", session.ID)

	// full pass in dependency order, each specialist seeing earlier findings
	for _, spec := range c.roster {
		finding, err := c.dispatch(ctx, spec, Task{
			Spec:        spec,
			Instruction: fullPassInstruction(spec, scenario),
			Context:     session.Findings,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, session, err
		}
		c.appendFinding(session, finding)
	}

	plan, fieldErrs, err := c.assembler.Assemble(session.Findings)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, session, err
	}

	// bounded repair: re-dispatch only the specialists owning missing fields
	owners := sectionOwners(c.roster)
	for round := 1; len(fieldErrs) > 0 && round <= c.cfg.Agents.RepairRounds; round++ {
		c.logger.Printf("[COORDINATOR] Repair round %d/%d for %d field errors",
			round, c.cfg.Agents.RepairRounds, len(fieldErrs))
		if c.telemetry != nil {
			c.telemetry.RecordRepairRound(len(fieldErrs))
		}

		byRole := groupByOwner(fieldErrs, owners)
		for _, spec := range c.roster {
			fields, ok := byRole[spec.Role]
			if !ok {
				continue
			}
			finding, err := c.dispatch(ctx, spec, Task{
				Spec:         spec,
				Instruction:  repairInstruction(spec, scenario),
				Context:      session.Findings,
				RepairFields: fields,
			})
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, session, err
			}
			c.appendFinding(session, finding)
		}

		plan, fieldErrs, err = c.assembler.Assemble(session.Findings)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, session, err
		}
	}

	if len(fieldErrs) > 0 {
		completionErr := &CompletionError{Fields: fieldErrs}
		span.RecordError(completionErr)
		span.SetStatus(codes.Error, completionErr.Error())
		return nil, session, completionErr
	}

	session.Completed = true
	span.SetAttributes(
		attribute.Float64("session.cost", session.TotalCost),
		attribute.Int64("session.tokens", session.TotalTokens),
	)
	c.logger.Printf("[COORDINATOR] Session %s completed: %d findings, %d tokens, $%.4f",
		session.ID, len(session.Findings), session.TotalTokens, session.TotalCost)
	return &plan, session, nil
}

func (c *Coordinator) dispatch(ctx context.Context, spec AgentSpec, task Task) (Finding, error) {
	tracer := otel.Tracer("advisor")
	ctx, span := tracer.Start(ctx, "specialist."+spec.Role)
	defer span.End()

	c.logger.Printf("[COORDINATOR] Dispatching %s", spec.Role)
	finding, err := c.specialists[spec.Role].Execute(ctx, task)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Finding{}, fmt.Errorf("dispatching %s: %w", spec.Role, err)
	}

	span.SetAttributes(
		attribute.Bool("finding.complete", finding.Complete),
		attribute.Int("finding.tool_calls", len(finding.ToolCalls)),
		attribute.Int64("finding.tokens", finding.TokensUsed),
	)
	if !finding.Complete {
		c.logger.Printf("[COORDINATOR] %s returned an incomplete finding: %s", spec.Role, finding.Error)
	}
	return finding, nil
}

func (c *Coordinator) appendFinding(session *SessionState, finding Finding) {
	session.Findings = append(session.Findings, finding)
	session.TotalCost += finding.Cost
	session.TotalTokens += finding.TokensUsed
}

func fullPassInstruction(spec AgentSpec, scenario string) string {
	return fmt.Sprintf("Business scenario:\n%s\n\nApply your expertise as %s to this scenario.", scenario, spec.Name)
}

func repairInstruction(spec AgentSpec, scenario string) string {
	return fmt.Sprintf("Business scenario:\n%s\n\nYour earlier analysis of this scenario was incomplete. Redo it as %s, paying attention to the fields listed below.", scenario, spec.Name)
}

// groupByOwner maps field errors to the roles that own the affected sections.
// Errors for sections nobody owns are dropped; the schema only names sections
// the roster covers.
func groupByOwner(errs FieldErrors, owners map[string]string) map[string][]string {
	byRole := make(map[string][]string)
	seen := make(map[string]map[string]bool)
	for _, fe := range errs {
		role, ok := owners[topLevelField(fe.Path)]
		if !ok {
			continue
		}
		if seen[role] == nil {
			seen[role] = make(map[string]bool)
		}
		if seen[role][fe.Path] {
			continue
		}
		seen[role][fe.Path] = true
		byRole[role] = append(byRole[role], fe.Path)
	}
	return byRole
}
