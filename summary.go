package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"planning-performance/internal/classify"
	"planning-performance/internal/snapshot"
)

type loadSummary struct {
	GeneratedAt   string               `json:"generated_at"`
	RunID         string               `json:"run_id"`
	Tag           string               `json:"tag,omitempty"`
	Organisations int                  `json:"organisations"`
	Awards        int                  `json:"awards"`
	Total         int64                `json:"total"`
	FundedCount   int                  `json:"funded_count"`
	LPACount      int                  `json:"lpa_count"`
	LiveCount     int                  `json:"live_count"`
	ByBucket      map[string]bucketAgg `json:"by_bucket"`
	Ranked        []organisationRecord `json:"ranked"`
}

type bucketAgg struct {
	Count  int   `json:"count"`
	Amount int64 `json:"amount"`
}

type organisationRecord struct {
	Organisation   string `json:"organisation"`
	Name           string `json:"name"`
	Role           string `json:"role,omitempty"`
	Bucket         string `json:"bucket,omitempty"`
	Amount         int64  `json:"amount"`
	Score          int64  `json:"score"`
	AdoptionStatus string `json:"adoption_status,omitempty"`
}

func summarize(run snapshot.Run, profiles []classify.Profile) loadSummary {
	summary := loadSummary{
		GeneratedAt:   run.GeneratedAt.Format(time.RFC3339),
		RunID:         run.ID.String(),
		Tag:           run.Tag,
		Organisations: run.Organisations,
		Awards:        run.Awards,
		Total:         run.Total,
		ByBucket:      make(map[string]bucketAgg),
		Ranked:        make([]organisationRecord, 0, len(profiles)),
	}
	for _, p := range profiles {
		if p.Role == classify.RoleLPA {
			summary.LPACount++
		}
		if p.AdoptionStatus == "live" {
			summary.LiveCount++
		}
		if p.Funded() {
			summary.FundedCount++
		}
		if p.Bucket != "" {
			agg := summary.ByBucket[p.Bucket]
			agg.Count++
			agg.Amount += p.Amount
			summary.ByBucket[p.Bucket] = agg
		}
		summary.Ranked = append(summary.Ranked, organisationRecord{
			Organisation:   p.Organisation,
			Name:           p.Name,
			Role:           p.Role,
			Bucket:         p.Bucket,
			Amount:         p.Amount,
			Score:          p.Score,
			AdoptionStatus: p.AdoptionStatus,
		})
	}
	return summary
}

func printSummary(w io.Writer, summary loadSummary, topN int, showAll bool) {
	p := message.NewPrinter(language.BritishEnglish)

	fmt.Fprintln(w, "Planning Performance Summary")
	fmt.Fprintln(w, strings.Repeat("-", 28))
	fmt.Fprintf(w, "Run:           %s\n", summary.RunID)
	fmt.Fprintf(w, "Organisations: %d\n", summary.Organisations)
	fmt.Fprintf(w, "LPAs:          %d\n", summary.LPACount)
	fmt.Fprintf(w, "Funded:        %d\n", summary.FundedCount)
	fmt.Fprintf(w, "Live:          %d\n", summary.LiveCount)
	p.Fprintf(w, "Awards:        %d (£%d)\n", summary.Awards, summary.Total)

	fmt.Fprintln(w, "\nBy Bucket")
	fmt.Fprintln(w, strings.Repeat("-", 9))
	for _, legend := range classify.Legends {
		agg, ok := summary.ByBucket[legend.Reference]
		if !ok {
			continue
		}
		p.Fprintf(w, "%s: %d funded (£%d)\n", legend.Name, agg.Count, agg.Amount)
	}

	if len(summary.Ranked) == 0 {
		fmt.Fprintln(w, "\nNo organisations classified.")
		return
	}
	fmt.Fprintln(w, "\nRanked Organisations")
	fmt.Fprintln(w, strings.Repeat("-", 20))
	limit := len(summary.Ranked)
	if !showAll && topN > 0 && topN < limit {
		limit = topN
	}
	for i := 0; i < limit; i++ {
		item := summary.Ranked[i]
		label := item.Organisation
		if item.Name != "" {
			label = fmt.Sprintf("%s (%s)", item.Name, item.Organisation)
		}
		bucket := item.Bucket
		if bucket == "" {
			bucket = "-"
		}
		p.Fprintf(w, "%d. %s | Bucket: %s | Funding: £%d | Score: %d\n", i+1, label, bucket, item.Amount, item.Score)
	}
	if limit < len(summary.Ranked) {
		fmt.Fprintf(w, "... %d more\n", len(summary.Ranked)-limit)
	}
}

func writeJSON(path string, summary loadSummary) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create JSON output: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(summary); err != nil {
		return fmt.Errorf("unable to write JSON output: %w", err)
	}
	return nil
}
