package engine

import (
	"fmt"
	"testing"
	"time"

	"chatsense/internal/domain"
)

func findingOfType(fs []domain.Finding, typ string) (domain.Finding, bool) {
	for _, f := range fs {
		if f.Type == typ {
			return f, true
		}
	}
	return domain.Finding{}, false
}

func TestRedFlagMessageImbalance(t *testing.T) {
	// 60 mensajes en 5 dias: Alice 50, Bob 10.
	var msgs []domain.Message
	for i := 0; i < 60; i++ {
		sender := "Alice"
		if i%6 == 5 {
			sender = "Bob"
		}
		ts := base.Add(time.Duration(i) * 2 * time.Hour)
		msgs = append(msgs, domain.Message{
			Sender:    sender,
			Text:      fmt.Sprintf("message number %d with some content", i),
			Timestamp: &ts,
			Platform:  domain.PlatformWhatsApp,
		})
	}
	sents := make([]*domain.SentimentResult, len(msgs))

	analysis, _ := Aggregate(msgs, sents, domain.PlatformWhatsApp, "")

	f, ok := findingOfType(analysis.RedFlags.RedFlags, "message_imbalance")
	if !ok {
		t.Fatalf("expected message_imbalance red flag: %+v", analysis.RedFlags)
	}
	if f.Severity != domain.SeverityHigh {
		t.Fatalf("expected severity high, got %s", f.Severity)
	}
	if analysis.RedFlags.OverallHealth != domain.HealthConcerning {
		t.Fatalf("expected health concerning, got %s", analysis.RedFlags.OverallHealth)
	}
}

func TestRedFlagFrequencyDrop(t *testing.T) {
	// 14 dias: 70 mensajes en la primera semana, 20 en la segunda.
	var msgs []domain.Message
	add := func(day, hour, idx int) {
		sender := "Alice"
		if idx%2 == 1 {
			sender = "Bob"
		}
		ts := time.Date(2024, 3, 1+day, hour, 0, 0, 0, time.UTC)
		msgs = append(msgs, domain.Message{
			Sender: sender, Text: "everything quiet around here today", Timestamp: &ts,
			Platform: domain.PlatformWhatsApp,
		})
	}
	idx := 0
	for day := 0; day < 7; day++ {
		for h := 9; h < 19; h++ {
			add(day, h, idx)
			idx++
		}
	}
	for day := 7; day < 13; day++ {
		for h := 9; h < 12; h++ {
			add(day, h, idx)
			idx++
		}
	}
	add(13, 9, idx)
	add(13, 10, idx+1)

	sents := make([]*domain.SentimentResult, len(msgs))
	analysis, _ := Aggregate(msgs, sents, domain.PlatformWhatsApp, "")

	f, ok := findingOfType(analysis.RedFlags.RedFlags, "frequency_drop")
	if !ok {
		t.Fatalf("expected frequency_drop red flag: %+v", analysis.RedFlags)
	}
	if f.Severity != domain.SeverityHigh {
		t.Fatalf("expected severity high, got %s", f.Severity)
	}
}

func TestRedFlagNoFrequencyDropOnLateStart(t *testing.T) {
	// Mismo volumen en ambas puntas, arrancando a la noche: el ultimo dia
	// calendario debe contarse completo en la serie diaria.
	var msgs []domain.Message
	addDay := func(start time.Time) {
		for i := 0; i < 20; i++ {
			sender := "Alice"
			if i%2 == 1 {
				sender = "Bob"
			}
			ts := start.Add(time.Duration(i) * 3 * time.Minute)
			msgs = append(msgs, domain.Message{
				Sender: sender, Text: "a steady stream of ordinary updates", Timestamp: &ts,
				Platform: domain.PlatformWhatsApp,
			})
		}
	}
	addDay(time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC))
	addDay(time.Date(2024, 1, 15, 0, 30, 0, 0, time.UTC))

	sents := make([]*domain.SentimentResult, len(msgs))
	analysis, _ := Aggregate(msgs, sents, domain.PlatformWhatsApp, "")

	if analysis.Period == nil || analysis.Period.DurationDays < FrequencyDropMinDays {
		t.Fatalf("fixture must span at least %d days: %+v", FrequencyDropMinDays, analysis.Period)
	}
	if _, ok := findingOfType(analysis.RedFlags.RedFlags, "frequency_drop"); ok {
		t.Fatalf("equal first/last week volume must not flag frequency_drop: %+v", analysis.RedFlags)
	}
	if len(analysis.RedFlags.RedFlags) != 0 {
		t.Fatalf("expected no red flags: %+v", analysis.RedFlags.RedFlags)
	}
	if analysis.RedFlags.OverallHealth == domain.HealthConcerning {
		t.Fatalf("health must not be concerning: %+v", analysis.RedFlags)
	}
}

func TestRedFlagSlowResponses(t *testing.T) {
	a := &domain.ChatAnalysis{
		TotalMessages: 30,
		BasicStats: domain.BasicStats{
			AverageMessageLength:   40,
			MessagesPerParticipant: map[string]int{"Alice": 15, "Bob": 15},
		},
		EngagementMetrics: domain.EngagementMetrics{
			ResponseTimeAnalysis: map[string]domain.ResponseTimeStats{
				"Bob": {AverageMinutes: 240, Count: 12},
			},
		},
	}
	report := DetectRedFlags(a, nil, 0.2)

	f, ok := findingOfType(report.RedFlags, "slow_responses")
	if !ok || f.Severity != domain.SeverityMedium {
		t.Fatalf("expected slow_responses medium: %+v", report)
	}
	if report.OverallHealth != domain.HealthModerate {
		t.Fatalf("a single medium flag should yield moderate, got %s", report.OverallHealth)
	}
}

func TestRedFlagSlowResponsesNeedsEvents(t *testing.T) {
	a := &domain.ChatAnalysis{
		BasicStats: domain.BasicStats{AverageMessageLength: 40},
		EngagementMetrics: domain.EngagementMetrics{
			ResponseTimeAnalysis: map[string]domain.ResponseTimeStats{
				"Bob": {AverageMinutes: 500, Count: 4},
			},
		},
	}
	report := DetectRedFlags(a, nil, 0.2)
	if _, ok := findingOfType(report.RedFlags, "slow_responses"); ok {
		t.Fatalf("under 10 events the rule must not fire: %+v", report)
	}
}

func TestRedFlagOneSidedInitiation(t *testing.T) {
	a := &domain.ChatAnalysis{
		BasicStats: domain.BasicStats{AverageMessageLength: 40},
		EngagementMetrics: domain.EngagementMetrics{
			ConversationInitiations: map[string]int{"Alice": 9, "Bob": 1},
		},
	}
	report := DetectRedFlags(a, nil, 0.2)
	f, ok := findingOfType(report.RedFlags, "one_sided_initiation")
	if !ok || f.Severity != domain.SeverityMedium {
		t.Fatalf("expected one_sided_initiation medium: %+v", report)
	}

	// Con pocas iniciaciones totales la regla no aplica.
	a.EngagementMetrics.ConversationInitiations = map[string]int{"Alice": 5, "Bob": 1}
	report = DetectRedFlags(a, nil, 0.2)
	if _, ok := findingOfType(report.RedFlags, "one_sided_initiation"); ok {
		t.Fatalf("under 10 total initiations the rule must not fire: %+v", report)
	}
}

func TestRedFlagLowEngagement(t *testing.T) {
	a := &domain.ChatAnalysis{
		TotalMessages: 40,
		BasicStats:    domain.BasicStats{AverageMessageLength: 12},
	}
	report := DetectRedFlags(a, nil, 0.01)
	if _, ok := findingOfType(report.RedFlags, "low_engagement"); !ok {
		t.Fatalf("expected low_engagement: %+v", report)
	}

	// Preguntas frecuentes desactivan la regla aunque los mensajes sean cortos.
	report = DetectRedFlags(a, nil, 0.3)
	if _, ok := findingOfType(report.RedFlags, "low_engagement"); ok {
		t.Fatalf("frequent questions must disable the rule: %+v", report)
	}
}

func TestWarningNegativeSentiment(t *testing.T) {
	a := &domain.ChatAnalysis{
		BasicStats: domain.BasicStats{AverageMessageLength: 40},
		SentimentAnalysis: domain.SentimentSummary{
			Overall: domain.SentimentRatios{NegativeRatio: 0.5, PositiveRatio: 0.2, NeutralRatio: 0.3},
		},
	}
	report := DetectRedFlags(a, nil, 0.2)
	if _, ok := findingOfType(report.Warnings, "high_negative_sentiment"); !ok {
		t.Fatalf("expected high_negative_sentiment warning: %+v", report)
	}
}

func TestWarningNightActivity(t *testing.T) {
	a := &domain.ChatAnalysis{
		BasicStats: domain.BasicStats{AverageMessageLength: 40},
	}
	a.MessagingPatterns.HourlyDistribution[1] = 3
	a.MessagingPatterns.HourlyDistribution[3] = 3
	a.MessagingPatterns.HourlyDistribution[15] = 4

	report := DetectRedFlags(a, nil, 0.2)
	if _, ok := findingOfType(report.Warnings, "night_activity_skew"); !ok {
		t.Fatalf("expected night_activity_skew warning: %+v", report)
	}
}

func TestWarningBurstSilence(t *testing.T) {
	daily := []int{40, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	a := &domain.ChatAnalysis{BasicStats: domain.BasicStats{AverageMessageLength: 40}}

	report := DetectRedFlags(a, daily, 0.2)
	if _, ok := findingOfType(report.Warnings, "burst_silence"); !ok {
		t.Fatalf("expected burst_silence warning: %+v", report)
	}

	uniform := []int{5, 5, 5, 5, 5, 5, 5}
	report = DetectRedFlags(a, uniform, 0.2)
	if _, ok := findingOfType(report.Warnings, "burst_silence"); ok {
		t.Fatalf("uniform activity is not a burst: %+v", report)
	}
}

func TestDeriveHealth(t *testing.T) {
	medium := domain.Finding{Severity: domain.SeverityMedium}
	high := domain.Finding{Severity: domain.SeverityHigh}

	cases := []struct {
		redFlags, warnings []domain.Finding
		want               domain.Health
	}{
		{nil, nil, domain.HealthHealthy},
		{nil, []domain.Finding{medium}, domain.HealthHealthy},
		{nil, []domain.Finding{medium, medium}, domain.HealthModerate},
		{[]domain.Finding{medium}, nil, domain.HealthModerate},
		{[]domain.Finding{high}, nil, domain.HealthConcerning},
		{[]domain.Finding{medium, medium}, nil, domain.HealthConcerning},
	}
	for i, c := range cases {
		if got := domain.DeriveHealth(c.redFlags, c.warnings); got != c.want {
			t.Fatalf("case %d: expected %s, got %s", i, c.want, got)
		}
	}
}
