package handlers

import (
	"earntube/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Services are the processors the HTTP layer calls into
type Services struct {
	Settings    service.Settings
	Methods     *service.MethodCatalog
	Withdrawals *service.WithdrawalService
	History     *service.HistoryService
	Balances    *service.BalanceService
	Admin       *service.AdminService
}

type Handler struct {
	DB *pgxpool.Pool
	Services
}

func NewHandler(db *pgxpool.Pool, s Services) *Handler {
	return &Handler{DB: db, Services: s}
}

// snapshot captures settings and the payment-method catalog once per request
func (h *Handler) snapshot(c *gin.Context) (service.Snapshot, bool) {
	snap, err := h.Methods.Current(c.Request.Context(), h.Settings)
	if err != nil {
		writeError(c, &service.Error{Kind: service.KindInternal, Message: "load payment methods", Err: err})
		return service.Snapshot{}, false
	}
	return snap, true
}
