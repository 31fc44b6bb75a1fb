package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"bostr/internal/chat_service/session"
	"bostr/internal/models"
	"bostr/internal/rag/interfaces"
	"bostr/internal/rag/pipeline"
	"bostr/internal/rag/schema"
	"bostr/pkg/logger"
)

// ErrEmptyQuestion is returned when the chat request carries no question.
var ErrEmptyQuestion = errors.New("question is required")

var greetingWords = []string{"hej", "hallå", "tjena"}
var greetingExact = []string{"hej", "hello", "hi"}

// broadSearchKeywords widen the retrieval breadth: questions asking for
// explanations or comparisons need more context than lookups.
var broadSearchKeywords = []string{"förklara", "beskriv", "jämför", "hur fungerar"}

var nonDigits = regexp.MustCompile(`\D`)
var yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// ProfileReader looks up what is known about a user.
type ProfileReader interface {
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
}

// Retriever fetches chunks relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, topK int) ([]*schema.Document, error)
}

// LLMFactory returns a completion backend, honoring optional per-request
// provider and model overrides.
type LLMFactory func(provider, modelName string) (interfaces.LLM, error)

// ChatService answers user questions. Small talk and the income
// clarification flow are handled directly; everything else goes through
// retrieval and the LLM.
type ChatService struct {
	profiles  ProfileReader
	sessions  session.Store
	retriever Retriever
	newLLM    LLMFactory
	topK      int
	broadTopK int
	log       *logger.Logger
}

func NewChatService(profiles ProfileReader, sessions session.Store, retriever Retriever, newLLM LLMFactory, topK, broadTopK int, log *logger.Logger) *ChatService {
	return &ChatService{
		profiles:  profiles,
		sessions:  sessions,
		retriever: retriever,
		newLLM:    newLLM,
		topK:      topK,
		broadTopK: broadTopK,
		log:       log,
	}
}

// Chat produces the answer for one chat request.
func (s *ChatService) Chat(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	if strings.TrimSpace(req.Question) == "" {
		return models.ChatResponse{}, ErrEmptyQuestion
	}

	userName := pipeline.DefaultUserName
	var income *float64
	if req.UserID != "" {
		profile, err := s.profiles.Get(ctx, req.UserID)
		if err != nil {
			// Personalisation is optional, the chat still works without it.
			s.log.WithError(models.ErrorInfo{
				Message: err.Error(),
				Type:    "profile_lookup_failed",
			}).Warn("answering without user profile")
		} else if profile != nil {
			if profile.Name != "" {
				userName = profile.Name
			}
			if profile.MonthlyIncome > 0 {
				v := profile.MonthlyIncome
				income = &v
			}
		}
	}

	lowerQuestion := strings.ToLower(strings.TrimSpace(req.Question))

	if isGreeting(lowerQuestion) {
		return models.ChatResponse{Answer: greetingAnswer(userName, income)}, nil
	}

	sessionID := req.UserID
	if sessionID == "" {
		sessionID = "anonymous"
	}

	state, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		s.log.WithError(models.ErrorInfo{
			Message: err.Error(),
			Type:    "session_lookup_failed",
		}).Warn("continuing without session state")
		state = ""
	}

	if state == session.StateWaitingForIncome {
		return s.answerIncomeClarification(ctx, sessionID, req.Question, userName)
	}

	if needsIncomeClarification(lowerQuestion) {
		if err := s.sessions.Set(ctx, sessionID, session.StateWaitingForIncome); err != nil {
			return models.ChatResponse{}, fmt.Errorf("failed to save session state: %w", err)
		}
		return models.ChatResponse{
			Answer: fmt.Sprintf("Hur mycket tror du att du kommer att tjäna i år, %s?", userName),
		}, nil
	}

	topK := s.topK
	if isBroadQuestion(lowerQuestion) {
		topK = s.broadTopK
	}

	docs, err := s.retriever.Retrieve(ctx, req.Question, topK)
	if err != nil {
		return models.ChatResponse{}, fmt.Errorf("retrieval failed: %w", err)
	}

	contextText := pipeline.BuildContext(docs)
	if strings.TrimSpace(contextText) == "" {
		return models.ChatResponse{Answer: pipeline.NoInfoAnswer(userName)}, nil
	}

	llm, err := s.newLLM(req.Provider, req.ModelName)
	if err != nil {
		return models.ChatResponse{}, fmt.Errorf("failed to create LLM client: %w", err)
	}

	prompt := pipeline.BuildPrompt(contextText, req.Question, userName, income)
	answer, err := llm.Generate(ctx, prompt)
	if err != nil {
		return models.ChatResponse{}, fmt.Errorf("generation failed: %w", err)
	}

	s.log.WithPayload(map[string]interface{}{
		"user":       userName,
		"top_k":      topK,
		"chunks":     len(docs),
		"provider":   req.Provider,
		"model_name": req.ModelName,
	}).Info("answered chat question")
	return models.ChatResponse{Answer: answer}, nil
}

// answerIncomeClarification handles the reply to "how much will you earn
// this year". A parseable number yields the yearly allowance estimate,
// anything else re-asks without dropping the pending state.
func (s *ChatService) answerIncomeClarification(ctx context.Context, sessionID, question, userName string) (models.ChatResponse, error) {
	digits := nonDigits.ReplaceAllString(question, "")
	yearlyIncome, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return models.ChatResponse{
			Answer: "Jag förstod inte summan, kan du skriva hur mycket du kommer tjäna i kronor?",
		}, nil
	}

	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		s.log.WithError(models.ErrorInfo{
			Message: err.Error(),
			Type:    "session_clear_failed",
		}).Warn("failed to clear session state")
	}

	allowance := yearlyIncome * 6
	return models.ChatResponse{
		Answer: fmt.Sprintf("Ditt fribelopp blir cirka %s kronor, %s.", formatThousands(allowance), userName),
	}, nil
}

func isGreeting(lowerQuestion string) bool {
	for _, exact := range greetingExact {
		if lowerQuestion == exact {
			return true
		}
	}
	for _, word := range greetingWords {
		if strings.Contains(lowerQuestion, word) {
			return true
		}
	}
	return false
}

func greetingAnswer(userName string, income *float64) string {
	if income != nil {
		return fmt.Sprintf("Hej %s! Din inkomst: %.0f. Välkommen till BOSTR-chatboten.", userName, *income)
	}
	return fmt.Sprintf("Hej %s! Välkommen till BOSTR-chatboten.", userName)
}

// needsIncomeClarification triggers the two-turn income flow: students get
// asked for their expected yearly income, and so does anyone asking about
// the allowance without naming a year, since the estimate depends on income.
func needsIncomeClarification(lowerQuestion string) bool {
	if strings.Contains(lowerQuestion, "student") {
		return true
	}
	return strings.Contains(lowerQuestion, "fribelopp") && !yearRe.MatchString(lowerQuestion)
}

func isBroadQuestion(lowerQuestion string) bool {
	for _, keyword := range broadSearchKeywords {
		if strings.Contains(lowerQuestion, keyword) {
			return true
		}
	}
	return false
}

// formatThousands renders 150000 as "150 000", the Swedish digit grouping.
func formatThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if n < 0 {
		return "-" + formatThousands(-n)
	}
	var groups []string
	for len(s) > 3 {
		groups = append([]string{s[len(s)-3:]}, groups...)
		s = s[:len(s)-3]
	}
	groups = append([]string{s}, groups...)
	return strings.Join(groups, " ")
}
