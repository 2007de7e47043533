package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"jobscout-engine/internal/apperr"
	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/oracle"
	"jobscout-engine/internal/util"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/PuerkitoBio/goquery"
)

const defaultTextWindow = 15000

// oracleJob is the fixed schema both oracle strategies ask for.
type oracleJob struct {
	Title          string `json:"title"`
	Location       string `json:"location"`
	Department     string `json:"department"`
	EmploymentType string `json:"employment_type"`
	ApplicationURL string `json:"application_url"`
	SalaryRange    string `json:"salary_range"`
	Description    string `json:"description"`
}

// OracleTextStrategy sends a bounded markdown rendition of the page to the
// oracle and parses the first JSON array out of the answer.
type OracleTextStrategy struct {
	oracle oracle.Client
	window int
	md     *converter.Converter
}

func NewOracleTextStrategy(o oracle.Client, window int) OracleTextStrategy {
	if window <= 0 {
		window = defaultTextWindow
	}
	return OracleTextStrategy{
		oracle: o,
		window: window,
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

func (OracleTextStrategy) Name() string { return MethodOracleText }

func (s OracleTextStrategy) TryExtract(ctx context.Context, in Input) ([]domain.ExtractedJob, error) {
	if s.oracle == nil {
		return nil, nil
	}
	text := s.PageText(in.Content.HTML(), in.Content.SourceURL)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	answer, err := s.oracle.Generate(ctx, textPrompt(in.Company, text), nil)
	if err != nil {
		return nil, err
	}
	return parseOracleJobs(answer)
}

// PageText strips script/style/nav/footer and returns at most window bytes
// of markdown, falling back to plain text if conversion fails.
func (s OracleTextStrategy) PageText(html, sourceURL string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return util.Truncate(util.CleanText(html), s.window)
	}
	doc.Find("script, style, noscript, nav, footer, header, svg, iframe").Remove()

	plain := util.CleanText(doc.Text())
	cleaned, err := doc.Html()
	if err != nil {
		return util.Truncate(plain, s.window)
	}

	var opts []converter.ConvertOptionFunc
	if sourceURL != "" {
		opts = append(opts, converter.WithDomain(sourceURL))
	}
	md, err := s.md.ConvertString(cleaned, opts...)
	if err != nil || strings.TrimSpace(md) == "" {
		return util.Truncate(plain, s.window)
	}
	return util.Truncate(strings.TrimSpace(md), s.window)
}

func textPrompt(company, text string) string {
	return fmt.Sprintf(`Below is the text of the careers page of %s.
List every open job position on it.

Return ONLY a JSON array. Each element must be an object with these keys:
"title", "location", "department", "employment_type", "application_url", "salary_range", "description".
Use "" for unknown values. Return [] if there are no job positions.

Page:
%s`, company, text)
}

// VisionStrategy is the last resort: ask a vision model what jobs the
// screenshot shows.
type VisionStrategy struct {
	Oracle oracle.Client
}

func (VisionStrategy) Name() string { return MethodVision }

func (s VisionStrategy) TryExtract(ctx context.Context, in Input) ([]domain.ExtractedJob, error) {
	if s.Oracle == nil || len(in.Content.Screenshot) == 0 {
		return nil, nil
	}
	answer, err := s.Oracle.Generate(ctx, visionPrompt(in.Company), in.Content.Screenshot)
	if err != nil {
		return nil, err
	}
	return parseOracleJobs(answer)
}

func visionPrompt(company string) string {
	return fmt.Sprintf(`This is a screenshot of the careers page of %s.
List every job position title visible on it with its location if shown.

Return ONLY a JSON array of objects with keys "title" and "location".
Return [] if no job positions are visible.`, company)
}

// parseOracleJobs treats anything but a well-formed array as zero results.
func parseOracleJobs(answer string) ([]domain.ExtractedJob, error) {
	const op = "extract.parseOracleJobs"

	raw := oracle.FirstJSONArray(answer)
	if raw == "" {
		return nil, apperr.Parse(op, errors.New("no json array in answer"))
	}
	var items []oracleJob
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, apperr.Parse(op, err)
	}

	out := make([]domain.ExtractedJob, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Title) == "" {
			continue
		}
		out = append(out, domain.ExtractedJob{
			Title:          it.Title,
			Location:       it.Location,
			Department:     it.Department,
			EmploymentType: it.EmploymentType,
			ApplicationURL: it.ApplicationURL,
			SalaryRange:    it.SalaryRange,
			Description:    it.Description,
		})
	}
	return out, nil
}
