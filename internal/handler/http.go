package handler

import (
	"context"
	"iter"
	"log/slog"
	"net/http"
	"time"

	"github.com/k-negishi/abi-shift-sync/internal/domain"
)

// Syncer 同期処理を実行し進捗を返すインターフェース
type Syncer interface {
	Execute(ctx context.Context, req domain.SyncRequest) iter.Seq2[string, error]
}

// Server 同期エンドポイントを提供するHTTPハンドラー
type Server struct {
	syncer      Syncer
	syncTimeout time.Duration
	mux         *http.ServeMux
}

// NewServer HTTPハンドラーを作成
func NewServer(syncer Syncer, syncTimeout time.Duration) *Server {
	s := &Server{
		syncer:      syncer,
		syncTimeout: syncTimeout,
		mux:         http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /sync", s.handleSync)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	return s
}

// ServeHTTP CORSヘッダーを付与してルーティング
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w.Header())
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSyncRequest(r.Body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write(errorBody(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.syncTimeout)
	defer cancel()

	setStreamHeaders(w.Header())
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	if err := Stream(w, rc.Flush, s.syncer.Execute(ctx, req)); err != nil {
		slog.WarnContext(ctx, "クライアントへの進捗送信を中断しました", "err", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

func setCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "*")
}

func setStreamHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
}
