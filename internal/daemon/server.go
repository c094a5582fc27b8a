// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dotandev/bunnyhop/internal/bunnyhop"
	"github.com/dotandev/bunnyhop/internal/errors"
	"github.com/dotandev/bunnyhop/internal/evm"
	"github.com/dotandev/bunnyhop/internal/logger"
	"github.com/dotandev/bunnyhop/internal/optimizer"
	"github.com/dotandev/bunnyhop/internal/telemetry"
)

// ServiceName prefixes every JSON-RPC method, e.g. "bunnyhop.Optimize".
const ServiceName = "bunnyhop"

// Config holds daemon configuration
type Config struct {
	Port      string
	AuthToken string
}

// Server is the JSON-RPC daemon. Its exported methods are the RPC surface.
type Server struct {
	runner    *optimizer.Runner
	authToken string
}

// OptimizeRequest is the bunnyhop.Optimize parameter object.
type OptimizeRequest struct {
	Code string `json:"code"`
}

// OptimizeResponse carries the optimized runtime code.
type OptimizeResponse struct {
	Code        string          `json:"code"`
	Constructor string          `json:"constructor,omitempty"`
	Cached      bool            `json:"cached"`
	Report      bunnyhop.Report `json:"report"`
}

// DisassembleRequest is the bunnyhop.Disassemble parameter object.
type DisassembleRequest struct {
	Code      string `json:"code"`
	Optimized bool   `json:"optimized"`
}

// InstructionView is one listing row.
type InstructionView struct {
	Offset    uint32 `json:"offset"`
	Mnemonic  string `json:"mnemonic"`
	Immediate string `json:"immediate,omitempty"`
	Changed   bool   `json:"changed,omitempty"`
	// Change is "demoted" or "repaired" for changed rows.
	Change string `json:"change,omitempty"`
}

// DisassembleResponse lists instructions in program order.
type DisassembleResponse struct {
	Instructions []InstructionView `json:"instructions"`
}

// NewServer creates a new JSON-RPC server
func NewServer(runner *optimizer.Runner, config Config) *Server {
	return &Server{
		runner:    runner,
		authToken: config.AuthToken,
	}
}

// authenticate validates the authorization token
func (s *Server) authenticate(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}

	auth := r.Header.Get("Authorization")
	if auth == "" {
		return false
	}
	token := strings.TrimPrefix(auth, "Bearer ")
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) == 1
}

// Optimize handles bunnyhop.Optimize calls.
func (s *Server) Optimize(r *http.Request, req *OptimizeRequest, resp *OptimizeResponse) error {
	if !s.authenticate(r) {
		return errors.WrapUnauthorized("Optimize")
	}

	ctx, span := telemetry.GetTracer().Start(r.Context(), "rpc_optimize")
	defer span.End()
	span.SetAttributes(attribute.Int("request.code_length", len(req.Code)))

	logger.Logger.Info("Processing Optimize RPC", "code_length", len(req.Code))

	res, err := s.runner.Run(ctx, req.Code)
	if err != nil {
		span.RecordError(err)
		return err
	}

	*resp = OptimizeResponse{
		Code:        res.Output,
		Constructor: res.Constructor,
		Cached:      res.Cached,
		Report:      res.Report,
	}
	return nil
}

// Disassemble handles bunnyhop.Disassemble calls.
func (s *Server) Disassemble(r *http.Request, req *DisassembleRequest, resp *DisassembleResponse) error {
	if !s.authenticate(r) {
		return errors.WrapUnauthorized("Disassemble")
	}

	ctx, span := telemetry.GetTracer().Start(r.Context(), "rpc_disassemble")
	defer span.End()

	listing, err := s.runner.Disassemble(ctx, req.Code)
	if err != nil {
		span.RecordError(err)
		return err
	}

	rows := listing.Before
	if req.Optimized {
		rows = listing.After
	}
	views := make([]InstructionView, len(rows))
	for i, ins := range rows {
		views[i] = InstructionView{
			Offset:    ins.Offset,
			Mnemonic:  ins.Mnemonic(),
			Immediate: common.Bytes2Hex(ins.Immediate),
		}
		if !req.Optimized {
			continue
		}
		if change := evm.Compare(listing.Before[i], ins); change != evm.Unchanged {
			views[i].Changed = true
			views[i].Change = change.String()
		}
	}
	resp.Instructions = views
	return nil
}

// Handler returns the HTTP routes: the JSON-RPC endpoint at /rpc and a
// liveness probe at /health.
func (s *Server) Handler() (http.Handler, error) {
	server := rpc.NewServer()
	server.RegisterCodec(json2.NewCodec(), "application/json")
	server.RegisterCodec(json2.NewCodec(), "application/json;charset=UTF-8")

	if err := server.RegisterService(s, ServiceName); err != nil {
		return nil, fmt.Errorf("failed to register service: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/rpc", server)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	return mux, nil
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, port string) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", port, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Logger.Info("Starting JSON-RPC server", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Logger.Info("Shutting down JSON-RPC server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
