package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"chatsense/internal/classifier"
	"chatsense/internal/domain"
)

type recordingSink struct {
	saved      []domain.Message
	analyses   []*domain.ChatAnalysis
	failSaveAt int // 1-based; 0 desactiva
	saveErr    error
}

func (s *recordingSink) Save(ctx context.Context, msg domain.Message) error {
	s.saved = append(s.saved, msg)
	if s.failSaveAt > 0 && len(s.saved) == s.failSaveAt {
		return s.saveErr
	}
	return nil
}

func (s *recordingSink) SaveAnalysis(ctx context.Context, analysis *domain.ChatAnalysis) error {
	s.analyses = append(s.analyses, analysis)
	return nil
}

const whatsappMinimal = "12/31/2023, 10:30 PM - Alice: I'm feeling great today! 😊\n" +
	"12/31/2023, 10:31 PM - Bob: Awesome!"

func TestAnalyzeConversationMinimalWhatsApp(t *testing.T) {
	e := New(nil, nil)
	res, err := e.AnalyzeConversation(context.Background(), whatsappMinimal, "", "Alice", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a := res.Analysis
	if a.FormatDetected != domain.PlatformWhatsApp {
		t.Fatalf("expected whatsapp format, got %s", a.FormatDetected)
	}
	if a.TotalMessages != 2 {
		t.Fatalf("expected total 2, got %d", a.TotalMessages)
	}
	if a.BasicStats.MessagesPerParticipant["Alice"] != 1 || a.BasicStats.MessagesPerParticipant["Bob"] != 1 {
		t.Fatalf("unexpected counts: %+v", a.BasicStats.MessagesPerParticipant)
	}
	if got := a.SentimentAnalysis.PerParticipant["Alice"].PositiveRatio; got != 1.0 {
		t.Fatalf("expected positive ratio 1.0 for Alice, got %v", got)
	}
	if a.Period == nil || a.Period.DurationDays != 1 {
		t.Fatalf("expected a 1-day period, got %+v", a.Period)
	}
	if a.Participants["Alice"].Role != domain.RoleSelf {
		t.Fatalf("Alice must be self: %+v", a.Participants["Alice"])
	}
}

func TestAnalyzeConversationEmitsToSinkInOrder(t *testing.T) {
	sink := &recordingSink{}
	e := New(nil, nil)

	res, err := e.AnalyzeConversation(context.Background(), whatsappMinimal, "", "", sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.saved) != 2 || sink.saved[0].Sender != "Alice" || sink.saved[1].Sender != "Bob" {
		t.Fatalf("sink emission out of order: %+v", sink.saved)
	}
	if len(sink.analyses) != 1 || sink.analyses[0] != res.Analysis {
		t.Fatalf("the sink must receive the final analysis")
	}
}

func TestAnalyzeConversationSinkAbortsWithPartial(t *testing.T) {
	sink := &recordingSink{failSaveAt: 1, saveErr: ErrAbort}
	e := New(nil, nil)

	res, err := e.AnalyzeConversation(context.Background(), whatsappMinimal, "", "", sink)
	if !errors.Is(err, ErrAbort) {
		t.Fatalf("expected ErrAbort, got %v", err)
	}
	if res == nil || res.Analysis.TotalMessages != 1 {
		t.Fatalf("expected the partial with 1 message: %+v", res)
	}
	if len(sink.analyses) != 0 {
		t.Fatalf("after aborting the analysis must not be persisted")
	}
}

func TestAnalyzeConversationSinkErrorNotFatal(t *testing.T) {
	sink := &recordingSink{failSaveAt: 1, saveErr: errors.New("db down")}
	e := New(nil, nil)

	res, err := e.AnalyzeConversation(context.Background(), whatsappMinimal, "", "", sink)
	if err != nil {
		t.Fatalf("ordinary sink errors are not fatal: %v", err)
	}
	if res.Analysis.TotalMessages != 2 {
		t.Fatalf("the analysis must be complete: %+v", res.Analysis)
	}
	found := false
	for _, d := range res.Diagnostics {
		if d.Kind == "sink_error" && strings.Contains(d.Detail, "db down") {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing sink_error diagnostic: %+v", res.Diagnostics)
	}
}

func TestAnalyzeConversationCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(nil, nil)
	res, err := e.AnalyzeConversation(ctx, whatsappMinimal, "", "", nil)
	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}
	if res == nil || res.Analysis.TotalMessages != 0 {
		t.Fatalf("the partial covers only completed messages: %+v", res)
	}
}

func TestAnalyzeConversationSizeLimits(t *testing.T) {
	e := New(nil, nil)
	if _, err := e.AnalyzeConversation(context.Background(), "  hola  ", "", "", nil); !errors.Is(err, ErrInputTooSmall) {
		t.Fatalf("expected ErrInputTooSmall, got %v", err)
	}

	huge := strings.Repeat("a", MaxBulkBytes+1)
	if _, err := e.AnalyzeConversation(context.Background(), huge, "", "", nil); !errors.Is(err, ErrInputTooLarge) {
		t.Fatalf("expected ErrInputTooLarge, got %v", err)
	}
}

func TestAnalyzeMessageDeterministic(t *testing.T) {
	e := New(nil, nil)
	a, err := e.AnalyzeMessage(context.Background(), "I'm so happy about this!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := e.AnalyzeMessage(context.Background(), "I'm so happy about this!")
	if a.Label != b.Label || a.Confidence != b.Confidence {
		t.Fatalf("same input must give the same result: %+v vs %+v", a, b)
	}
}

func TestAnalyzeMessageEmpty(t *testing.T) {
	e := New(nil, nil)
	if _, err := e.AnalyzeMessage(context.Background(), "   \n "); !errors.Is(err, ErrInputTooSmall) {
		t.Fatalf("expected ErrInputTooSmall, got %v", err)
	}
}

func TestAnalyzeMessageHungClassifierFallsBackToLexical(t *testing.T) {
	hung := &classifier.Mock{
		Delay: 5 * time.Second,
		Result: &domain.ClassifierResult{
			Label:      domain.SentimentNegative,
			Confidence: 0.99,
		},
	}
	e := New(hung, nil)

	start := time.Now()
	res, err := e.AnalyzeMessage(context.Background(), "I'm feeling great today!")
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed > 2100*time.Millisecond {
		t.Fatalf("classifier timeout did not cut off in time: %v", elapsed)
	}

	lexical, _ := New(nil, nil).AnalyzeMessage(context.Background(), "I'm feeling great today!")
	if res.Label != lexical.Label {
		t.Fatalf("fallback must match the lexical path: %s vs %s", res.Label, lexical.Label)
	}
}

func TestAnalyzeMessageUsesClassifier(t *testing.T) {
	cls := &classifier.Mock{
		Result: &domain.ClassifierResult{
			Label:      domain.SentimentNegative,
			Confidence: 0.95,
			Emotions:   map[string]float64{"sadness": 0.7},
		},
	}
	e := New(cls, nil)

	res, err := e.AnalyzeMessage(context.Background(), "well that happened")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Label != domain.SentimentNegative || res.Confidence != 0.95 {
		t.Fatalf("a non-neutral classifier result wins: %+v", res)
	}
	if res.Emotions["sadness"] != 0.7 {
		t.Fatalf("classifier emotions missing: %+v", res.Emotions)
	}
}

func TestSanitizeInput(t *testing.T) {
	in := "hola\x00mundo\ncon\ttabs"
	if got := SanitizeInput(in); got != "holamundo\ncon\ttabs" {
		t.Fatalf("unexpected sanitization: %q", got)
	}

	long := strings.Repeat("x", MaxMessageChars+50)
	if got := SanitizeInput(long); len(got) != MaxMessageChars {
		t.Fatalf("expected truncation to %d, got %d", MaxMessageChars, len(got))
	}
}
