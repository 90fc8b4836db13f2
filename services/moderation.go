package services

import (
	"bytes"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"github.com/staszek-kampania/backend/model"
)

// ModerationService scores forum comments 0-9 through a Together-compatible
// chat-completion endpoint. Admin comments bypass the model; non-admin
// comments with admin-like nicknames are scored as trolling without ever
// reaching the model. Any malformed model response scores 0 (fail closed).
type ModerationService struct {
	context.DefaultService

	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

const MODERATION_SVC = "moderation_svc"

const (
	moderationTimeout = 9 * time.Second

	defaultModerationModel   = "Qwen/Qwen2.5-7B-Instruct-Turbo"
	defaultModerationBaseURL = "https://api.together.ai"

	// Informational score attached to admin comments (admin always publishes).
	adminBypassScore = 8
	// Fixed "trolling" score for admin-impersonation nicknames; below the
	// publish threshold, so such comments are always rejected.
	impersonationScore = 3
)

func (svc ModerationService) Id() string {
	return MODERATION_SVC
}

func (svc *ModerationService) Configure(ctx *context.Context) error {
	svc.httpClient = &http.Client{
		Timeout: moderationTimeout,
	}

	svc.apiKey = strings.TrimSpace(os.Getenv("TOGETHER_API_KEY"))

	svc.model = strings.TrimSpace(os.Getenv("TOGETHER_MODEL"))
	if svc.model == "" {
		svc.model = defaultModerationModel
	}

	base := strings.TrimSpace(os.Getenv("TOGETHER_BASE_URL"))
	if base == "" {
		base = defaultModerationBaseURL
	}
	svc.baseURL = strings.TrimRight(base, "/")

	return svc.DefaultService.Configure(ctx)
}

func (svc *ModerationService) Start() error {
	return nil
}

func (svc *ModerationService) Configured() bool {
	return svc.apiKey != ""
}

func (svc *ModerationService) Model() string {
	return svc.model
}

func (svc *ModerationService) BaseURL() string {
	return svc.baseURL
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
}

type moderationUserPayload struct {
	ThreadKey string `json:"thread_key"`
	Name      string `json:"name"`
	Message   string `json:"message"`
}

var exactDigitRegex = regexp.MustCompile(`^\s*([0-9])\s*$`)

// Moderate scores one comment. The model is asked for exactly one digit;
// everything else about the rubric lives in the system prompt.
func (svc *ModerationService) Moderate(threadKey, name, message string, isAdmin bool) model.ModerationResult {
	if isAdmin {
		return model.ModerationResult{OK: true, Score: adminBypassScore}
	}
	if IsAdminImpersonationName(name) {
		return model.ModerationResult{OK: true, Score: impersonationScore}
	}
	if svc.apiKey == "" {
		return model.ModerationResult{ErrCode: "missing_together_api_key"}
	}

	userContent, err := sonic.MarshalString(moderationUserPayload{
		ThreadKey: threadKey,
		Name:      name,
		Message:   message,
	})
	if err != nil {
		return model.ModerationResult{ErrCode: "together_error"}
	}

	payload, err := sonic.Marshal(chatCompletionRequest{
		Model: svc.model,
		Messages: []chatMessage{
			{Role: "system", Content: moderationSystemPrompt},
			{Role: "user", Content: userContent},
		},
		Temperature: 0,
		TopP:        1,
		MaxTokens:   2,
	})
	if err != nil {
		return model.ModerationResult{ErrCode: "together_error"}
	}

	req, err := http.NewRequest(http.MethodPost, svc.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return model.ModerationResult{ErrCode: "together_error"}
	}
	req.Header.Set("Authorization", "Bearer "+svc.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := svc.httpClient.Do(req)
	if err != nil {
		upstreamErrorsTotal.WithLabelValues("together").Inc()
		log.WithError(err).Warn("Moderation endpoint unreachable")
		return model.ModerationResult{ErrCode: "together_unreachable"}
	}
	defer resp.Body.Close()

	var parsed chatCompletionResponse
	decodeErr := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		upstreamErrorsTotal.WithLabelValues("together").Inc()
		return model.ModerationResult{ErrCode: "together_error", Status: resp.StatusCode}
	}
	if decodeErr != nil {
		return model.ModerationResult{OK: true, Score: 0}
	}

	content := ""
	if len(parsed.Choices) > 0 {
		content = strings.TrimSpace(parsed.Choices[0].Message.Content)
		if content == "" {
			content = strings.TrimSpace(parsed.Choices[0].Text)
		}
	}

	score := 0
	if m := exactDigitRegex.FindStringSubmatch(content); m != nil {
		score, _ = strconv.Atoi(m[1])
	}
	if score < 0 || score > 9 {
		score = 0
	}

	moderationScoresTotal.WithLabelValues(strconv.Itoa(score)).Inc()
	return model.ModerationResult{OK: true, Score: score}
}

// NormalizeForNameCheck lowercases, strips diacritics (NFKD + combining
// marks) and drops everything outside [a-z0-9].
func NormalizeForNameCheck(value string) string {
	s := strings.TrimSpace(value)
	if s == "" {
		return ""
	}

	decomposed := norm.NFKD.String(s)
	var b strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsAdminImpersonationName flags nicknames that normalize to an "admin..."
// prefix, regardless of case, spacing or diacritics.
func IsAdminImpersonationName(name string) bool {
	n := NormalizeForNameCheck(name)
	if n == "" {
		return false
	}
	return strings.HasPrefix(n, "admin")
}

// Kept verbatim from the deployed moderator configuration; the model must
// answer with exactly one digit 0-9 on this rubric.
const moderationSystemPrompt = `Jesteś moderatorem komentarzy (forum kampanii szkolnej).

Zasada odpowiedzi:
- Zwracasz DOKŁADNIE JEDEN ZNAK: cyfrę 0-9.
- NIE dodawaj niczego poza tą cyfrą (żadnych słów, spacji, kropek, nawiasów, myślników, list, nowych linii).
- NIE wypisuj skali ani zakresów typu "0-9".

Zasada oceny:
- To są WYTYCZNE / przykłady. Użyj osądu.
- Jeśli komentarz pasuje do kilku kategorii → wybierz NAJNIŻSZĄ (najbardziej restrykcyjną) ocenę.
- Jeśli widzisz kilka niezależnych negatywnych sygnałów naraz (np. hejt + spam) → możesz zaniżyć ocenę jeszcze bardziej.

Skala:
0 = BARDZO ZŁY: groźby, nienawiść, doxxing, skrajny hejt / wulgaryzmy (najgorsze przypadki)
1 = obraźliwy/hejt/wulgaryzmy/nękanie LUB promowanie innego kandydata niż Stanisław (np. "głosuj na X", "X lepszy", anty-Stanisław)
2 = spam / flood / reklama / link-spam / powtarzalność / podszywanie się (rażąca niespójność nick/tytuł vs treść, udawanie osoby/instytucji)
3 = trolling / ośmieszanie / złośliwe, niekonstruktywne teksty
4 = mała wartość, ale pozytywne (np. głupie prośby/pytania bez złych intencji)
5 = pozytywne (np. krótkie okrzyki/rymowanki albo prośby/ogłoszenia na plus dla Stanisława)
6 = konstruktywne pytania (konkretne, merytoryczne)
7 = konstruktywne ogłoszenia/prośby (konkret, do zrobienia, merytoryczne)
8 = sensowne wsparcie / deklaracja poparcia (bez trollingu)
9 = WYJĄTKOWO DOBRE: bardzo wartościowy, merytoryczny, konkretny komentarz (mega konstruktywny)

Ważne:
- Pole name może być nickiem ALBO tytułem (np. "Senator", "Dyrekcja", "Komisja"). To może być poprawne.
- Podszywanie (2) tylko jeśli są mocne przesłanki w treści lub rażąca niespójność.
- Jeśli komentarz jest OK i ma sens → dawaj 5-8 (bo 0-4 będzie odrzucone).
- Jeśli nie jesteś pewien → wybierz ostrożnie niższą ocenę.
`
