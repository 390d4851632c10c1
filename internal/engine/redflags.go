package engine

import (
	"fmt"
	"math"

	"chatsense/internal/domain"
)

// Umbrales fijos del detector. Cada regla emite a lo sumo un hallazgo.
const (
	MessageImbalanceRatio    = 3.0
	MessageImbalanceMinTotal = 50
	SlowResponseMinutes      = 180.0
	SlowResponseMinEvents    = 10
	FrequencyDropRatio       = 0.5
	FrequencyDropMinDays     = 14
	OneSidedInitiationRatio  = 4.0
	OneSidedMinInitiations   = 10
	LowEngagementAvgChars    = 20.0
	LowEngagementQuestionMax = 0.05

	negativeSentimentWarnRatio = 0.45
	nightActivityWarnRatio     = 0.25
	burstSilenceStdDevFactor   = 2.0
)

// DetectRedFlags evalua las reglas sobre las metricas ya agregadas. Es una
// funcion pura: no toca el analisis que recibe.
func DetectRedFlags(a *domain.ChatAnalysis, dailyCounts []int, questionRatio float64) domain.RedFlagReport {
	var redFlags, warnings []domain.Finding

	if f, ok := checkMessageImbalance(a); ok {
		redFlags = append(redFlags, f)
	}
	if f, ok := checkSlowResponses(a); ok {
		redFlags = append(redFlags, f)
	}
	if f, ok := checkFrequencyDrop(a, dailyCounts); ok {
		redFlags = append(redFlags, f)
	}
	if f, ok := checkOneSidedInitiation(a); ok {
		redFlags = append(redFlags, f)
	}
	if f, ok := checkLowEngagement(a, questionRatio); ok {
		redFlags = append(redFlags, f)
	}

	if a.SentimentAnalysis.Overall.NegativeRatio > negativeSentimentWarnRatio {
		warnings = append(warnings, domain.Finding{
			Type:        "high_negative_sentiment",
			Severity:    domain.SeverityMedium,
			Description: fmt.Sprintf("%.0f%% of scored messages carry negative sentiment", a.SentimentAnalysis.Overall.NegativeRatio*100),
			Suggestion:  "The overall tone skews negative; consider whether this conversation is weighing on you.",
		})
	}
	if f, ok := checkNightActivity(a); ok {
		warnings = append(warnings, f)
	}
	if f, ok := checkBurstSilence(dailyCounts); ok {
		warnings = append(warnings, f)
	}

	return domain.RedFlagReport{
		RedFlags:      redFlags,
		Warnings:      warnings,
		TotalRedFlags: len(redFlags),
		TotalWarnings: len(warnings),
		OverallHealth: domain.DeriveHealth(redFlags, warnings),
	}
}

func checkMessageImbalance(a *domain.ChatAnalysis) (domain.Finding, bool) {
	if a.TotalMessages < MessageImbalanceMinTotal || len(a.BasicStats.MessagesPerParticipant) < 2 {
		return domain.Finding{}, false
	}
	maxCount, minCount := 0, math.MaxInt
	var maxName string
	for name, c := range a.BasicStats.MessagesPerParticipant {
		if c > maxCount {
			maxCount, maxName = c, name
		}
		if c < minCount {
			minCount = c
		}
	}
	if minCount > 0 && float64(maxCount)/float64(minCount) <= MessageImbalanceRatio {
		return domain.Finding{}, false
	}
	return domain.Finding{
		Type:        "message_imbalance",
		Severity:    domain.SeverityHigh,
		Description: fmt.Sprintf("%s sends over %gx more messages than the least active participant", maxName, MessageImbalanceRatio),
		Suggestion:  "One side carries most of the conversation; a healthy exchange is more balanced.",
	}, true
}

func checkSlowResponses(a *domain.ChatAnalysis) (domain.Finding, bool) {
	for name, stats := range a.EngagementMetrics.ResponseTimeAnalysis {
		if stats.Count >= SlowResponseMinEvents && stats.AverageMinutes > SlowResponseMinutes {
			return domain.Finding{
				Type:        "slow_responses",
				Severity:    domain.SeverityMedium,
				Description: fmt.Sprintf("%s takes %.0f minutes on average to respond", name, stats.AverageMinutes),
				Suggestion:  "Consistently slow replies can signal fading interest or avoidance.",
			}, true
		}
	}
	return domain.Finding{}, false
}

func checkFrequencyDrop(a *domain.ChatAnalysis, dailyCounts []int) (domain.Finding, bool) {
	if a.Period == nil || a.Period.DurationDays < FrequencyDropMinDays || len(dailyCounts) < FrequencyDropMinDays {
		return domain.Finding{}, false
	}
	firstWeek, lastWeek := 0, 0
	for _, c := range dailyCounts[:7] {
		firstWeek += c
	}
	for _, c := range dailyCounts[len(dailyCounts)-7:] {
		lastWeek += c
	}
	if firstWeek == 0 || float64(lastWeek) >= FrequencyDropRatio*float64(firstWeek) {
		return domain.Finding{}, false
	}
	return domain.Finding{
		Type:        "frequency_drop",
		Severity:    domain.SeverityHigh,
		Description: fmt.Sprintf("message volume fell from %d in the first week to %d in the last week", firstWeek, lastWeek),
		Suggestion:  "The conversation has cooled off sharply compared to how it started.",
	}, true
}

func checkOneSidedInitiation(a *domain.ChatAnalysis) (domain.Finding, bool) {
	inits := a.EngagementMetrics.ConversationInitiations
	if len(inits) < 2 {
		return domain.Finding{}, false
	}
	total, maxCount, minCount := 0, 0, math.MaxInt
	var maxName string
	for name, c := range inits {
		total += c
		if c > maxCount {
			maxCount, maxName = c, name
		}
		if c < minCount {
			minCount = c
		}
	}
	if total < OneSidedMinInitiations {
		return domain.Finding{}, false
	}
	if minCount > 0 && float64(maxCount)/float64(minCount) < OneSidedInitiationRatio {
		return domain.Finding{}, false
	}
	return domain.Finding{
		Type:        "one_sided_initiation",
		Severity:    domain.SeverityMedium,
		Description: fmt.Sprintf("%s starts nearly every conversation (%d of %d initiations)", maxName, maxCount, total),
		Suggestion:  "If only one person ever reaches out, the other may not be equally invested.",
	}, true
}

func checkLowEngagement(a *domain.ChatAnalysis, questionRatio float64) (domain.Finding, bool) {
	if a.TotalMessages == 0 {
		return domain.Finding{}, false
	}
	if a.BasicStats.AverageMessageLength >= LowEngagementAvgChars || questionRatio >= LowEngagementQuestionMax {
		return domain.Finding{}, false
	}
	return domain.Finding{
		Type:        "low_engagement",
		Severity:    domain.SeverityMedium,
		Description: fmt.Sprintf("messages average %.0f characters and almost none ask a question", a.BasicStats.AverageMessageLength),
		Suggestion:  "Short answers with no questions back often indicate low engagement.",
	}, true
}

func checkNightActivity(a *domain.ChatAnalysis) (domain.Finding, bool) {
	total, night := 0, 0
	for h, c := range a.MessagingPatterns.HourlyDistribution {
		total += c
		if h <= 4 {
			night += c
		}
	}
	if total == 0 || float64(night)/float64(total) <= nightActivityWarnRatio {
		return domain.Finding{}, false
	}
	return domain.Finding{
		Type:        "night_activity_skew",
		Severity:    domain.SeverityLow,
		Description: fmt.Sprintf("%.0f%% of messages are sent between midnight and 5am", float64(night)/float64(total)*100),
		Suggestion:  "Late-night-only conversations can be a pattern worth noticing.",
	}, true
}

func checkBurstSilence(dailyCounts []int) (domain.Finding, bool) {
	if len(dailyCounts) < 2 {
		return domain.Finding{}, false
	}
	sum := 0
	for _, c := range dailyCounts {
		sum += c
	}
	mean := float64(sum) / float64(len(dailyCounts))
	if mean == 0 {
		return domain.Finding{}, false
	}
	variance := 0.0
	for _, c := range dailyCounts {
		d := float64(c) - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(len(dailyCounts)))
	if stddev <= burstSilenceStdDevFactor*mean {
		return domain.Finding{}, false
	}
	return domain.Finding{
		Type:        "burst_silence",
		Severity:    domain.SeverityLow,
		Description: "activity alternates between intense bursts and long silences",
		Suggestion:  "Highly uneven messaging rhythm can reflect an on-and-off dynamic.",
	}, true
}
