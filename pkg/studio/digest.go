package studio

import (
	"context"

	"github.com/shouni/gemini-content-studio/pkg/domain"
	"github.com/shouni/gemini-content-studio/pkg/generator"
	"github.com/shouni/gemini-content-studio/pkg/lifelog"
)

// DigestRequest はライフログの振り返りの要求です。
type DigestRequest struct {
	Credential  Credential
	Mode        lifelog.Mode
	Date        string
	SelectedIDs []string
	// PreviewOnly の場合はログ一覧だけを返し、要約と描画を行いません。
	PreviewOnly bool
}

// DigestResult は振り返りの結果です。
type DigestResult struct {
	Mode          lifelog.Mode     `json:"mode"`
	Range         lifelog.Range    `json:"range"`
	LogCount      int              `json:"logCount"`
	Logs          []lifelog.Entry  `json:"logs,omitempty"`
	Summary       *lifelog.Summary `json:"summary,omitempty"`
	SummaryStatus string           `json:"summaryStatus,omitempty"`
	ImagePrompt   string           `json:"imagePrompt,omitempty"`
	HTML          string           `json:"html,omitempty"`
	Plan          *domain.Plan     `json:"plan,omitempty"`
	Pattern       *domain.Pattern  `json:"pattern,omitempty"`
}

// Digest はライフログを取得して学びを要約し、インフォグラフィックを1枚描画します。
// 要約に失敗しても簡易要約で続行し、描画の失敗はパターンのアイテムに error として残ります。
func (s *Service) Digest(ctx context.Context, req DigestRequest) (*DigestResult, error) {
	cred := req.Credential.Merge(s.opts.Defaults)
	client, err := lifelog.NewClient(cred.LimitlessAPIKey, s.opts.LimitlessEndpoint, s.opts.HTTP)
	if err != nil {
		return nil, err
	}

	r := lifelog.BuildRange(req.Mode, req.Date, s.now())
	logs, err := client.Fetch(ctx, r)
	if err != nil {
		return nil, err
	}
	result := &DigestResult{Mode: r.Mode, Range: r, LogCount: len(logs), Logs: lifelog.Normalize(logs)}
	if req.PreviewOnly {
		return result, nil
	}

	selected := lifelog.Filter(logs, req.SelectedIDs)
	if len(selected) == 0 {
		return nil, lifelog.ErrNoLogsSelected
	}

	b, err := s.backend(ctx, cred)
	if err != nil {
		return nil, err
	}
	summary := lifelog.NewSummarizer(b.Text).Summarize(ctx, selected, r)
	result.Summary = &summary.Value
	result.SummaryStatus = summary.Status()
	result.ImagePrompt = lifelog.ImagePrompt(summary.Value, r)
	if html, err := summary.Value.HTML(); err == nil {
		result.HTML = html
	}

	plan := lifelog.Plan(s.newID(), summary.Value, r)
	pipeline, err := generator.NewPipeline(b.Renderer, s.opts.Catalog, s.opts.Pipeline)
	if err != nil {
		return nil, err
	}
	pattern := domain.NewPattern(s.newID(), "digest", plan, s.now())
	pattern.Demo = b.Demo
	pipeline.RenderAll(ctx, plan, pattern, generator.RunOptions{}, nil)

	result.Plan = &plan
	result.Pattern = pattern
	s.opts.History.Append(ctx, domain.KindDigest, domain.HistoryEntry{
		Brief: summary.Value.Summary,
		Plan:  plan,
		Items: pattern.Items,
	})
	return result, nil
}
