package engine

import (
	"sort"
	"strings"
	"time"

	"chatsense/internal/domain"
	"chatsense/internal/sentiment"
)

const (
	// ConversationGapHours separa conversaciones: un hueco mayor o igual
	// cuenta como nueva iniciacion.
	ConversationGapHours = 6
	// ResponseTimeCapHours excluye deltas mayores del analisis de respuesta.
	ResponseTimeCapHours = 24

	topActiveHours = 5
	topEmojis      = 10
)

// signals son series derivadas que el detector necesita y que no viajan en el
// ChatAnalysis serializado.
type signals struct {
	dailyCounts   []int
	questionRatio float64
}

// Aggregate consume la lista completa de mensajes junto con sus resultados de
// sentimiento alineados (nil para mensajes no puntuados, p.ej. media) y arma
// el ChatAnalysis con el reporte de red flags incluido. selfName marca el rol
// self entre los participantes.
func Aggregate(msgs []domain.Message, sentiments []*domain.SentimentResult, format domain.Platform, selfName string) (*domain.ChatAnalysis, []domain.Diagnostic) {
	msgs, sentiments = sortByTimestamp(msgs, sentiments)

	analysis := &domain.ChatAnalysis{
		FormatDetected: format,
		TotalMessages:  len(msgs),
	}
	var diags []domain.Diagnostic

	analysis.BasicStats = basicStats(msgs)
	analysis.Period = period(msgs)
	analysis.Participants = participants(analysis.BasicStats, msgs, selfName)
	analysis.MessagingPatterns = messagingPatterns(msgs, analysis.BasicStats, analysis.Period)
	analysis.EngagementMetrics = engagementMetrics(msgs)

	summary, scored := sentimentSummary(msgs, sentiments)
	analysis.SentimentAnalysis = summary
	if scored == 0 && len(msgs) > 0 {
		diags = append(diags, domain.Diagnostic{Kind: "no_scored_messages", Detail: "no messages received a sentiment score"})
	}

	analysis.EmojiStats = emojiStats(msgs, analysis.BasicStats)

	sig := deriveSignals(msgs, analysis.Period)
	analysis.RedFlags = DetectRedFlags(analysis, sig.dailyCounts, sig.questionRatio)

	return analysis, diags
}

// sortByTimestamp ordena de forma estable los mensajes con timestamp entre
// ellos, dejando los mensajes sin timestamp en su posicion original.
func sortByTimestamp(msgs []domain.Message, sentiments []*domain.SentimentResult) ([]domain.Message, []*domain.SentimentResult) {
	slots := make([]int, 0, len(msgs))
	for i, m := range msgs {
		if m.Timestamp != nil {
			slots = append(slots, i)
		}
	}
	order := make([]int, len(slots))
	copy(order, slots)
	sort.SliceStable(order, func(a, b int) bool {
		return msgs[order[a]].Timestamp.Before(*msgs[order[b]].Timestamp)
	})

	outMsgs := make([]domain.Message, len(msgs))
	copy(outMsgs, msgs)
	outSents := make([]*domain.SentimentResult, len(msgs))
	copy(outSents, sentiments)
	for k, slot := range slots {
		outMsgs[slot] = msgs[order[k]]
		outSents[slot] = sentiments[order[k]]
	}
	return outMsgs, outSents
}

func basicStats(msgs []domain.Message) domain.BasicStats {
	stats := domain.BasicStats{
		TotalMessages:          len(msgs),
		MessagesPerParticipant: make(map[string]int),
	}
	totalLen := 0
	var (
		bestLen    = -1
		bestSender string
		bestTS     *time.Time
	)
	for _, m := range msgs {
		stats.MessagesPerParticipant[m.Sender]++
		l := len([]rune(m.Text))
		totalLen += l
		if betterLongest(l, m.Sender, m.Timestamp, bestLen, bestSender, bestTS) {
			bestLen, bestSender, bestTS = l, m.Sender, m.Timestamp
		}
	}
	if len(msgs) > 0 {
		stats.AverageMessageLength = float64(totalLen) / float64(len(msgs))
		stats.LongestMessage = domain.LongestMessage{Sender: bestSender, Length: bestLen}
	}
	return stats
}

// betterLongest resuelve empates de mensaje mas largo: gana el timestamp mas
// temprano y, a igual timestamp, el remitente lexicograficamente menor.
func betterLongest(l int, sender string, ts *time.Time, bestLen int, bestSender string, bestTS *time.Time) bool {
	if l != bestLen {
		return l > bestLen
	}
	switch {
	case ts != nil && bestTS != nil && !ts.Equal(*bestTS):
		return ts.Before(*bestTS)
	case ts != nil && bestTS == nil:
		return true
	case ts == nil && bestTS != nil:
		return false
	}
	return sender < bestSender
}

func period(msgs []domain.Message) *domain.Period {
	var start, end *time.Time
	for i := range msgs {
		ts := msgs[i].Timestamp
		if ts == nil {
			continue
		}
		if start == nil || ts.Before(*start) {
			start = ts
		}
		if end == nil || ts.After(*end) {
			end = ts
		}
	}
	if start == nil {
		return nil
	}
	days := int(end.Sub(*start).Hours()/24) + 1
	return &domain.Period{Start: *start, End: *end, DurationDays: days}
}

func participants(stats domain.BasicStats, msgs []domain.Message, selfName string) map[string]domain.Participant {
	selfName = strings.TrimSpace(selfName)
	lengths := make(map[string]int)
	for _, m := range msgs {
		lengths[m.Sender] += len([]rune(m.Text))
	}
	out := make(map[string]domain.Participant, len(stats.MessagesPerParticipant))
	for name, count := range stats.MessagesPerParticipant {
		role := domain.RoleOther
		if selfName != "" && strings.EqualFold(strings.TrimSpace(name), selfName) {
			role = domain.RoleSelf
		}
		avg := 0.0
		if count > 0 {
			avg = float64(lengths[name]) / float64(count)
		}
		out[name] = domain.Participant{
			Name:          name,
			Role:          role,
			MessageCount:  count,
			AverageLength: avg,
		}
	}
	return out
}

func messagingPatterns(msgs []domain.Message, stats domain.BasicStats, p *domain.Period) domain.MessagingPatterns {
	patterns := domain.MessagingPatterns{
		DayOfWeekDistribution:   make(map[string]int),
		FrequencyPerParticipant: make(map[string]float64),
	}
	for _, m := range msgs {
		if m.Timestamp == nil {
			continue
		}
		patterns.HourlyDistribution[m.Timestamp.Hour()]++
		patterns.DayOfWeekDistribution[m.Timestamp.Weekday().String()]++
	}

	hours := make([]domain.HourCount, 0, 24)
	for h, c := range patterns.HourlyDistribution {
		if c > 0 {
			hours = append(hours, domain.HourCount{Hour: h, Count: c})
		}
	}
	sort.Slice(hours, func(a, b int) bool {
		if hours[a].Count != hours[b].Count {
			return hours[a].Count > hours[b].Count
		}
		return hours[a].Hour < hours[b].Hour
	})
	if len(hours) > topActiveHours {
		hours = hours[:topActiveHours]
	}
	patterns.MostActiveHours = hours

	days := 1
	if p != nil {
		days = p.DurationDays
	}
	for name, count := range stats.MessagesPerParticipant {
		patterns.FrequencyPerParticipant[name] = float64(count) / float64(days)
	}
	return patterns
}

func engagementMetrics(msgs []domain.Message) domain.EngagementMetrics {
	metrics := domain.EngagementMetrics{
		ResponseTimeAnalysis:    make(map[string]domain.ResponseTimeStats),
		ConversationInitiations: make(map[string]int),
	}

	// Tiempos de respuesta: pares adyacentes con cambio de emisor, ambos con
	// timestamp y delta dentro del tope.
	deltas := make(map[string][]float64)
	for i := 1; i < len(msgs); i++ {
		prev, cur := msgs[i-1], msgs[i]
		if cur.Sender == prev.Sender || cur.Timestamp == nil || prev.Timestamp == nil {
			continue
		}
		delta := cur.Timestamp.Sub(*prev.Timestamp)
		if delta < 0 || delta > ResponseTimeCapHours*time.Hour {
			continue
		}
		deltas[cur.Sender] = append(deltas[cur.Sender], delta.Minutes())
	}
	for name, ds := range deltas {
		metrics.ResponseTimeAnalysis[name] = responseStats(ds)
	}

	// Iniciaciones: primer mensaje, o hueco de al menos ConversationGapHours
	// respecto del ultimo mensaje con timestamp.
	var prevTS *time.Time
	for i, m := range msgs {
		initiates := i == 0
		if !initiates && m.Timestamp != nil && prevTS != nil {
			initiates = m.Timestamp.Sub(*prevTS) >= ConversationGapHours*time.Hour
		}
		if initiates {
			metrics.ConversationInitiations[m.Sender]++
		}
		if m.Timestamp != nil {
			prevTS = m.Timestamp
		}
	}

	metrics.BackAndForth = backAndForth(msgs)
	return metrics
}

func responseStats(ds []float64) domain.ResponseTimeStats {
	sorted := make([]float64, len(ds))
	copy(sorted, ds)
	sort.Float64s(sorted)

	sum := 0.0
	for _, d := range sorted {
		sum += d
	}
	return domain.ResponseTimeStats{
		AverageMinutes: sum / float64(len(sorted)),
		MedianMinutes:  percentile50(sorted),
		FastestMinutes: sorted[0],
		SlowestMinutes: sorted[len(sorted)-1],
		Count:          len(sorted),
	}
}

// percentile50 interpola linealmente entre los dos valores centrales.
func percentile50(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	pos := float64(n-1) / 2
	lower := int(pos)
	frac := pos - float64(lower)
	if lower+1 >= n {
		return sorted[lower]
	}
	return sorted[lower] + frac*(sorted[lower+1]-sorted[lower])
}

// backAndForth cuenta rachas maximales donde el emisor alterna en cada paso.
func backAndForth(msgs []domain.Message) domain.BackAndForthMetrics {
	var metrics domain.BackAndForthMetrics
	if len(msgs) == 0 {
		return metrics
	}

	totalLen := 0
	run := 1
	endRun := func() {
		if run >= 2 {
			metrics.TotalExchanges++
			totalLen += run
			if run > metrics.LongestExchange {
				metrics.LongestExchange = run
			}
		}
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Sender != msgs[i-1].Sender {
			run++
			continue
		}
		endRun()
		run = 1
	}
	endRun()

	if metrics.TotalExchanges > 0 {
		metrics.AverageExchangeLength = float64(totalLen) / float64(metrics.TotalExchanges)
	}
	return metrics
}

func sentimentSummary(msgs []domain.Message, sentiments []*domain.SentimentResult) (domain.SentimentSummary, int) {
	type counts struct{ pos, neu, neg int }
	perPart := make(map[string]*counts)
	var overall counts
	scored := 0

	for i, m := range msgs {
		if i >= len(sentiments) || sentiments[i] == nil {
			continue
		}
		scored++
		c := perPart[m.Sender]
		if c == nil {
			c = &counts{}
			perPart[m.Sender] = c
		}
		switch sentiments[i].Label {
		case domain.SentimentPositive:
			c.pos++
			overall.pos++
		case domain.SentimentNegative:
			c.neg++
			overall.neg++
		default:
			c.neu++
			overall.neu++
		}
	}

	ratios := func(c counts) domain.SentimentRatios {
		total := c.pos + c.neu + c.neg
		if total == 0 {
			return domain.SentimentRatios{}
		}
		return domain.SentimentRatios{
			PositiveRatio: float64(c.pos) / float64(total),
			NeutralRatio:  float64(c.neu) / float64(total),
			NegativeRatio: float64(c.neg) / float64(total),
		}
	}

	summary := domain.SentimentSummary{
		PerParticipant: make(map[string]domain.SentimentRatios, len(perPart)),
		Overall:        ratios(overall),
	}
	for name, c := range perPart {
		summary.PerParticipant[name] = ratios(*c)
	}
	return summary, scored
}

func emojiStats(msgs []domain.Message, stats domain.BasicStats) map[string]domain.ParticipantEmojiStats {
	type tally struct {
		counts map[string]int
		order  []string
		total  int
	}
	perPart := make(map[string]*tally)

	for _, m := range msgs {
		seqs := sentiment.ExtractEmojis(m.Text)
		if len(seqs) == 0 {
			continue
		}
		t := perPart[m.Sender]
		if t == nil {
			t = &tally{counts: make(map[string]int)}
			perPart[m.Sender] = t
		}
		for _, seq := range seqs {
			if t.counts[seq] == 0 {
				t.order = append(t.order, seq)
			}
			t.counts[seq]++
			t.total++
		}
	}

	out := make(map[string]domain.ParticipantEmojiStats, len(perPart))
	for name, t := range perPart {
		top := make([]domain.EmojiCount, 0, len(t.order))
		for _, seq := range t.order {
			top = append(top, domain.EmojiCount{Emoji: seq, Count: t.counts[seq]})
		}
		// Empates por orden de primera aparicion, que el sort estable conserva.
		sort.SliceStable(top, func(a, b int) bool { return top[a].Count > top[b].Count })
		if len(top) > topEmojis {
			top = top[:topEmojis]
		}

		perMsg := 0.0
		if mc := stats.MessagesPerParticipant[name]; mc > 0 {
			perMsg = float64(t.total) / float64(mc)
		}
		out[name] = domain.ParticipantEmojiStats{
			TotalEmojis:      t.total,
			EmojisPerMessage: perMsg,
			MostUsedEmojis:   top,
		}
	}
	return out
}

func deriveSignals(msgs []domain.Message, p *domain.Period) signals {
	var sig signals

	questions := 0
	for _, m := range msgs {
		if strings.Contains(m.Text, "?") {
			questions++
		}
	}
	if len(msgs) > 0 {
		sig.questionRatio = float64(questions) / float64(len(msgs))
	}

	if p == nil {
		return sig
	}
	// La serie va por dia calendario inclusive. DurationDays mide horas
	// transcurridas y se queda un dia corto cuando el chat arranca de noche,
	// lo que tiraria los mensajes del ultimo dia.
	startDay := time.Date(p.Start.Year(), p.Start.Month(), p.Start.Day(), 0, 0, 0, 0, time.UTC)
	endDay := time.Date(p.End.Year(), p.End.Month(), p.End.Day(), 0, 0, 0, 0, time.UTC)
	days := int(endDay.Sub(startDay).Hours()/24) + 1
	sig.dailyCounts = make([]int, days)
	for _, m := range msgs {
		if m.Timestamp == nil {
			continue
		}
		day := int(m.Timestamp.Sub(startDay).Hours() / 24)
		if day >= 0 && day < len(sig.dailyCounts) {
			sig.dailyCounts[day]++
		}
	}
	return sig
}
