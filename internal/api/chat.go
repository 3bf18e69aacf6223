package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/tallyfold/tallyfold/internal/model"
)

// WebSocket message protocol.
//
// Client -> Server:
//
//	{"type": "chat", "payload": {"message": "..."}}
//	{"type": "ping"}
//
// Server -> Client:
//
//	{"type": "connected", "payload": {"session_id": "...", "stats": {...}}}
//	{"type": "chat_response", "payload": {"message": "...", "transactions": [...], "timestamp": "..."}}
//	{"type": "error", "payload": {"code": "...", "message": "..."}}
//	{"type": "pong"}
type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type chatPayload struct {
	Message string `json:"message"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Local tool, no cross-origin restrictions.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

func (s *Server) handleChat(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	session := s.sessions.Create()
	defer s.sessions.Remove(session.ID)

	stats, err := s.store.GetStats(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to load stats for chat", "error", err)
		stats = model.Stats{}
	}
	_ = conn.WriteJSON(gin.H{
		"type": "connected",
		"payload": gin.H{
			"session_id": session.ID,
			"stats":      stats,
		},
	})

	for {
		_, data, readErr := conn.ReadMessage()
		if readErr != nil {
			return
		}

		var msg wsMessage
		if jsonErr := json.Unmarshal(data, &msg); jsonErr != nil {
			s.sendChatError(conn, "INVALID_JSON", "Invalid JSON message")
			continue
		}

		switch msg.Type {
		case "ping":
			_ = conn.WriteJSON(gin.H{"type": "pong"})

		case "chat":
			var payload chatPayload
			if len(msg.Payload) > 0 {
				_ = json.Unmarshal(msg.Payload, &payload)
			}
			query := strings.TrimSpace(payload.Message)
			if query == "" {
				s.sendChatError(conn, "EMPTY_MESSAGE", "Message cannot be empty")
				continue
			}

			session.Touch()

			answer, transactions, askErr := s.answerQuestion(c.Request.Context(), session, query)
			if askErr != nil {
				s.sendChatError(conn, "CHAT_ERROR", askErr.Error())
				continue
			}
			session.Remember(query, answer)

			_ = conn.WriteJSON(gin.H{
				"type": "chat_response",
				"payload": gin.H{
					"message":      answer,
					"transactions": transactions,
					"timestamp":    time.Now().Format(time.RFC3339),
				},
			})

		default:
			s.sendChatError(conn, "UNKNOWN_TYPE", fmt.Sprintf("Unknown message type: %s", msg.Type))
		}
	}
}

func (s *Server) sendChatError(conn *websocket.Conn, code, message string) {
	_ = conn.WriteJSON(gin.H{
		"type": "error",
		"payload": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

const chatTransactionLimit = 10

// answerQuestion pulls matching transactions and database stats into a
// prompt and asks the backend model to answer in plain language.
func (s *Server) answerQuestion(ctx context.Context, session *ChatSession, query string) (string, []model.Transaction, error) {
	transactions := s.relevantTransactions(ctx, query)

	prompt := s.buildChatPrompt(ctx, session, query, transactions)
	resp, err := s.llmClient.ChatCompletion(ctx, prompt)
	if err != nil {
		return "", nil, fmt.Errorf("backend request failed: %w", err)
	}
	return strings.TrimSpace(resp.Content), transactions, nil
}

// relevantTransactions searches the store for each word of the query
// and collects distinct hits, newest first.
func (s *Server) relevantTransactions(ctx context.Context, query string) []model.Transaction {
	seen := make(map[int64]bool)
	matches := make([]model.Transaction, 0, chatTransactionLimit)

	for _, word := range strings.Fields(query) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(word) < 3 {
			continue
		}
		found, err := s.store.Search(ctx, word)
		if err != nil {
			continue
		}
		for _, txn := range found {
			if seen[txn.ID] {
				continue
			}
			seen[txn.ID] = true
			matches = append(matches, txn)
			if len(matches) >= chatTransactionLimit {
				return matches
			}
		}
	}
	return matches
}

func (s *Server) buildChatPrompt(ctx context.Context, session *ChatSession, query string, transactions []model.Transaction) string {
	var b strings.Builder

	b.WriteString("You are a personal finance assistant answering questions about the user's bank transactions.\n")
	b.WriteString("Answer concisely using only the data below. If the data does not cover the question, say so.\n\n")

	if stats, err := s.store.GetStats(ctx); err == nil {
		fmt.Fprintf(&b, "Database: %d transactions across %d statements. Total debits: %.2f, total credits: %.2f.\n\n",
			stats.TotalTransactions, stats.TotalStatements, stats.TotalDebits, stats.TotalCredits)
	}

	if len(transactions) > 0 {
		b.WriteString("Matching transactions:\n")
		for _, txn := range transactions {
			fmt.Fprintf(&b, "- %s | %s | %.2f | %s | %s\n",
				txn.Date, txn.Description, txn.Amount, txn.Type, txn.Category)
		}
		b.WriteString("\n")
	}

	history := session.History()
	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Question: %s", query)
	return b.String()
}
