package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"ergocare-backend/models"

	"github.com/google/uuid"
)

// Generator is a single-shot text completion backend
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// DefaultInstructions is the fixed instruction block sent ahead of the
// profile and context.
const DefaultInstructions = `You are ErgoCare AI, an ergonomic recommendation assistant for university faculty.

STRICT RULES:
1. Only recommend things supported by the provided KNOWLEDGE_BASE_CONTEXT documents.
2. Do NOT diagnose any medical condition and do NOT invent clinical metrics.
3. Cite evidence only as [SOURCE: <name>] using names from PERMITTED_SOURCES. Never invent a source.
4. Use exactly the sections below, in this order. Do not add any other section.
5. For every domain whose Risk Level is Low, write "No recommendation needed" under Recommendations.
6. If the context does not cover a point, say "Not enough evidence in KB".
7. Always include the Disclaimer section, using policy documents when available.

Output Format:

### Ergonomic Recommendation Report
Overall Risk Level: <Low/Moderate/High>

## Key Contributors
- ...

## Posture
Risk Level: <Low/Moderate/High>
Recommendations:
- ...
Why This Helps:
- ...

## Vision
Risk Level: <Low/Moderate/High>
Recommendations:
- ...
Why This Helps:
- ...

## Cognitive
Risk Level: <Low/Moderate/High>
Recommendations:
- ...
Why This Helps:
- ...

## Musculoskeletal
Risk Level: <Low/Moderate/High>
Recommendations:
- ...
Why This Helps:
- ...

## Lifestyle
Risk Level: <Low/Moderate/High>
Recommendations:
- ...
Why This Helps:
- ...

## Break Schedule
- ...

## Workstation Checklist
- [ ] ...

## Evidence Sources
- [SOURCE: ...]

## Disclaimer
<disclaimer text>`

// RequiredSections are the headings every report should contain
var RequiredSections = []string{
	"### Ergonomic Recommendation Report",
	"Overall Risk Level:",
	"## Key Contributors",
	"## Posture",
	"## Vision",
	"## Cognitive",
	"## Musculoskeletal",
	"## Lifestyle",
	"## Break Schedule",
	"## Workstation Checklist",
	evidenceHeading,
	"## Disclaimer",
}

const (
	evidenceHeading         = "## Evidence Sources"
	verifiedEvidenceHeading = "## Verified Evidence Sources"
)

var sourceCitation = regexp.MustCompile(`\[SOURCE:\s*([^\]]+?)\s*\]`)

// ReportStrategy is the one configuration that drives report generation
type ReportStrategy struct {
	Weights          RetrievalWeights
	Instructions     string
	Temperature      float32
	TopP             float32
	RequiredSections []string
	IncludeGeneral   bool // also route msk and lifestyle to the general partition
}

// DefaultReportStrategy returns the standard strategy
func DefaultReportStrategy() ReportStrategy {
	return ReportStrategy{
		Weights:          DefaultRetrievalWeights(),
		Instructions:     DefaultInstructions,
		Temperature:      0.2,
		TopP:             0.9,
		RequiredSections: RequiredSections,
	}
}

// ReportGenerator builds the grounded prompt and post-checks the answer
type ReportGenerator struct {
	strategy  ReportStrategy
	generator Generator
	timeout   time.Duration
}

// NewReportGenerator creates a report generator; a zero timeout means none
func NewReportGenerator(generator Generator, strategy ReportStrategy, timeout time.Duration) *ReportGenerator {
	if strategy.Instructions == "" {
		strategy.Instructions = DefaultInstructions
	}
	if strategy.RequiredSections == nil {
		strategy.RequiredSections = RequiredSections
	}
	return &ReportGenerator{strategy: strategy, generator: generator, timeout: timeout}
}

// Strategy returns the active strategy
func (g *ReportGenerator) Strategy() ReportStrategy {
	return g.strategy
}

type riskProfile struct {
	Prediction   models.Prediction                  `json:"prediction"`
	RiskDrivers  models.RiskDrivers                 `json:"risk_drivers"`
	DomainLevels map[models.Domain]models.RiskLevel `json:"domain_levels"`
	RiskIndices  models.RiskIndices                 `json:"risk_indices"`
}

// BuildPrompt assembles instructions, profile, context and permitted sources
func (g *ReportGenerator) BuildPrompt(interp models.RiskInterpretation, indices models.RiskIndices, gctx models.GroundedContext) (string, error) {
	shaped := models.NewAssessmentResult(uuid.Nil, interp, indices)
	profile := riskProfile{
		Prediction:   shaped.Prediction,
		RiskDrivers:  shaped.RiskDrivers,
		DomainLevels: make(map[models.Domain]models.RiskLevel, len(models.DomainOrder)),
		RiskIndices:  indices,
	}
	for _, d := range models.DomainOrder {
		profile.DomainLevels[d] = interp.LevelFor(d)
	}
	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal risk profile: %w", err)
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(g.strategy.Instructions))
	b.WriteString("\n\nRISK_PROFILE (JSON):\n")
	b.Write(profileJSON)
	b.WriteString("\n\nKNOWLEDGE_BASE_CONTEXT:\n")
	b.WriteString(gctx.Rendered)
	b.WriteString("\n\nPERMITTED_SOURCES:\n")
	b.WriteString(FormatSources(gctx.Sources))
	b.WriteString("\n\nGenerate the report now.\n")
	return b.String(), nil
}

// Generate calls the generator once and appends source footers when the
// answer omits or misstates its evidence.
func (g *ReportGenerator) Generate(
	ctx context.Context,
	interp models.RiskInterpretation,
	indices models.RiskIndices,
	gctx models.GroundedContext,
) (*models.Report, error) {
	if g.generator == nil {
		return nil, fmt.Errorf("%w: generator not set", ErrGenerationFailed)
	}

	prompt, err := g.BuildPrompt(interp, indices, gctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	genCtx, cancel := withOptionalTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.generator.Complete(genCtx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(genCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrGenerationTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}

	sources := gctx.Sources
	if sources == nil {
		sources = []string{}
	}
	report := &models.Report{Text: text, Sources: sources}
	g.checkReport(report, gctx)
	return report, nil
}

// checkReport logs structural problems and appends verified source
// footers. Section content is never synthesised.
func (g *ReportGenerator) checkReport(report *models.Report, gctx models.GroundedContext) {
	for _, section := range g.strategy.RequiredSections {
		if !strings.Contains(report.Text, section) {
			warning := fmt.Sprintf("missing section %q", section)
			log.Printf("Warning: Generated report %s", warning)
			report.Warnings = append(report.Warnings, warning)
		}
	}

	footer := FormatSources(gctx.Sources)
	if !strings.Contains(report.Text, evidenceHeading) {
		report.Text += "\n\n" + evidenceHeading + "\n" + footer
		report.Warnings = append(report.Warnings, "evidence sources footer appended")
		return
	}

	var unverified []string
	for _, m := range sourceCitation.FindAllStringSubmatch(report.Text, -1) {
		src := m[1]
		if src == "none" && len(gctx.Sources) == 0 {
			continue
		}
		if !gctx.HasSource(src) && !contains(unverified, src) {
			unverified = append(unverified, src)
		}
	}
	if len(unverified) > 0 {
		warning := fmt.Sprintf("unverified sources cited: %s", strings.Join(unverified, ", "))
		log.Printf("Warning: Generated report has %s", warning)
		report.Warnings = append(report.Warnings, warning)
		report.Text += "\n\n" + verifiedEvidenceHeading + "\n" + footer
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
