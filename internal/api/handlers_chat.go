package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"guiderag/internal/guide"
	"guiderag/internal/retrieval"
)

// ChatMessage is one turn of the conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []ChatMessage `json:"messages"`
	TopK     int           `json:"top_k"`
	GuideID  *int          `json:"guide_id"`
	// Token is an optional content-source token used to resolve fresh
	// guide titles and URLs for attribution.
	Token string `json:"token"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Messages) == 0 {
		jsonError(w, "at least one message is required", http.StatusBadRequest)
		return
	}
	if req.TopK < 0 || req.TopK > 20 {
		jsonError(w, "top_k must be between 1 and 20", http.StatusBadRequest)
		return
	}
	if req.TopK == 0 {
		req.TopK = s.cfg.DefaultTopK
	}

	question, history, ok := splitConversation(req.Messages)
	if !ok {
		jsonError(w, "at least one user message with content is required", http.StatusBadRequest)
		return
	}

	result, err := s.query.Query(r.Context(), retrieval.QueryRequest{
		Question: question,
		TopK:     req.TopK,
		History:  history,
		Token:    req.Token,
		GuideID:  req.GuideID,
	})
	switch {
	case errors.Is(err, retrieval.ErrAnswer):
		s.log.Error("answer generation failed", "error", err)
		jsonError(w, retrieval.ErrAnswer.Error(), http.StatusBadGateway)
		return
	case err != nil:
		s.log.Error("knowledge base search failed", "error", err)
		jsonError(w, retrieval.ErrSearch.Error(), http.StatusInternalServerError)
		return
	}

	jsonResponse(w, http.StatusOK, result)
}

// splitConversation finds the latest user message as the question and
// renders the preceding user/assistant turns as history lines.
func splitConversation(messages []ChatMessage) (question string, history []string, ok bool) {
	last := -1
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" && strings.TrimSpace(messages[i].Content) != "" {
			last = i
			break
		}
	}
	if last < 0 {
		return "", nil, false
	}

	for _, msg := range messages[:last] {
		content := strings.TrimSpace(msg.Content)
		if content == "" || (msg.Role != "user" && msg.Role != "assistant") {
			continue
		}
		history = append(history, capitalize(msg.Role)+": "+content)
	}
	return strings.TrimSpace(messages[last].Content), history, true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		jsonError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	token, err := s.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		var authErr *guide.AuthError
		if errors.As(err, &authErr) {
			jsonError(w, "authentication failed", http.StatusUnauthorized)
			return
		}
		s.log.Error("authentication request failed", "error", err)
		jsonError(w, "content source unavailable", http.StatusBadGateway)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"token": token})
}
