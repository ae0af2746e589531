package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"time"

	"earntube/internal/config"
	"earntube/internal/db"
	"earntube/internal/domain"
	"earntube/internal/logger"
	"earntube/internal/repository"
	"earntube/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type event struct {
	Event        string `json:"event"`
	WithdrawalID int64  `json:"withdrawalId"`
	Status       string `json:"status"`
}

// ws_smoke drives one withdrawal through a running server and checks that
// both the owner and an admin see every lifecycle event on /ws.
func main() {
	// 127.0.0.1 avoids resolving localhost to [::1]
	host := flag.String("host", "127.0.0.1", "server host")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT(cfg.JWTSecret)

	pool := db.Connect(cfg.DatabaseURL)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	users := repository.NewUserRepository(pool)
	user := &domain.User{TelegramID: 3001, Username: "smoke_user", FullName: "Smoke User"}
	if err := users.Create(ctx, user); err != nil {
		logger.Fatal("create user failed", "error", err)
	}
	admin := &domain.User{TelegramID: 3002, Username: "smoke_admin", FullName: "Smoke Admin", Role: domain.RoleAdmin}
	if err := users.Create(ctx, admin); err != nil {
		logger.Fatal("create admin failed", "error", err)
	}

	need := decimal.NewFromInt(10)
	if user.Balance.LessThan(need) {
		if _, err := service.NewBalanceService(pool).Credit(ctx, user.ID, need, domain.LedgerAdminCredit, map[string]interface{}{"source": "ws_smoke"}); err != nil {
			logger.Fatal("credit failed", "error", err)
		}
	}

	userToken := mustToken(user)
	adminToken := mustToken(admin)

	base := fmt.Sprintf("http://%s:%s/api/v1", *host, cfg.AppPort)
	userConn := dial(*host, cfg.AppPort, userToken)
	defer userConn.Close()
	adminConn := dial(*host, cfg.AppPort, adminToken)
	defer adminConn.Close()

	var created struct {
		Withdrawal struct {
			ID int64 `json:"id"`
		} `json:"withdrawal"`
	}
	body := `{"method":"bkash","amount":100,"recipient":"01712345678"}`
	call(http.MethodPost, base+"/withdrawals", userToken, body, &created)
	id := created.Withdrawal.ID
	logger.Info("withdrawal created", "id", id)

	expect(userConn, "user", domain.EventWithdrawalCreated, id)
	expect(adminConn, "admin", domain.EventWithdrawalCreated, id)

	decide := fmt.Sprintf(`{"withdrawalId":%d,"status":"rejected","reason":"smoke test"}`, id)
	call(http.MethodPut, base+"/withdrawals", adminToken, decide, nil)

	expect(userConn, "user", domain.EventWithdrawalRejected, id)
	expect(adminConn, "admin", domain.EventWithdrawalRejected, id)

	logger.Info("smoke test passed", "withdrawal_id", id)
}

func mustToken(u *domain.User) string {
	token, err := service.GenerateJWT(u.ID, u.Role)
	if err != nil {
		logger.Fatal("generate jwt failed", "user_id", u.ID, "error", err)
	}
	return token
}

func dial(host, port, token string) *websocket.Conn {
	url := fmt.Sprintf("ws://%s:%s/ws?token=%s", host, port, token)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		logger.Fatal("ws dial failed", "error", err)
	}

	var f frame
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&f); err != nil || f.Type != "ready" {
		logger.Fatal("ws handshake failed", "type", f.Type, "error", err)
	}
	return conn
}

func call(method, url, token, body string, out interface{}) {
	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	if err != nil {
		logger.Fatal("build request failed", "error", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if method == http.MethodPost {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		logger.Fatal("request failed", "url", url, "error", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e map[string]interface{}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		logger.Fatal("unexpected status", "url", url, "status", resp.StatusCode, "body", e)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			logger.Fatal("decode response failed", "error", err)
		}
	}
}

// expect reads frames until the wanted event for id arrives.
func expect(conn *websocket.Conn, who, want string, id int64) {
	deadline := time.Now().Add(10 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			logger.Fatal("waiting for event", "who", who, "event", want, "error", err)
		}
		if f.Type != "withdrawal" {
			continue
		}
		var ev event
		if err := json.Unmarshal(f.Data, &ev); err != nil {
			logger.Fatal("decode event failed", "error", err)
		}
		if ev.Event == want && ev.WithdrawalID == id {
			logger.Info("event received", "who", who, "event", ev.Event, "status", ev.Status)
			return
		}
	}
}
