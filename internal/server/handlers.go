package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/roach88/memorychain/internal/engine"
	"github.com/roach88/memorychain/internal/ir"
	"github.com/roach88/memorychain/internal/program"
	"github.com/roach88/memorychain/internal/store"
)

type healthResponse struct {
	Status string `json:"status"`
	Seq    int64  `json:"seq"`
}

type programResponse struct {
	ProgramID      ir.Address  `json:"program_id"`
	VaultAuthority ir.Address  `json:"vault_authority"`
	Bump           uint8       `json:"bump"`
	RewardMint     *ir.Address `json:"reward_mint,omitempty"`
}

type derivationResponse struct {
	Address ir.Address `json:"address"`
	Bump    uint8      `json:"bump"`
}

type memoryResponse struct {
	Address     ir.Address `json:"address"`
	ContentHash ir.Hash    `json:"content_hash"`
	Owner       ir.Address `json:"owner"`
	CreatedAt   int64      `json:"created_at"`
}

type storeMemoryRequest struct {
	Hash ir.Hash `json:"hash"`
}

type rewardRequest struct {
	Recipient ir.Address `json:"recipient"`
	Amount    uint64     `json:"amount"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Seq: s.engine.Seq()})
}

func (s *Server) programInfo(w http.ResponseWriter, r *http.Request) {
	scheme := s.engine.Program().Scheme()
	authority, err := scheme.VaultAuthority()
	if err != nil {
		writeError(w, http.StatusInternalServerError, string(program.ErrCodeDerivationFailure), err.Error())
		return
	}

	resp := programResponse{
		ProgramID:      scheme.ProgramID(),
		VaultAuthority: authority.Address,
		Bump:           authority.Bump,
	}
	if s.hasMint {
		mint := s.mint
		resp.RewardMint = &mint
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) deriveMemory(w http.ResponseWriter, r *http.Request) {
	h, ok := hashParam(w, r)
	if !ok {
		return
	}
	d, err := s.engine.Program().Scheme().Memory(h)
	if err != nil {
		writeError(w, http.StatusInternalServerError, string(program.ErrCodeDerivationFailure), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, derivationResponse{Address: d.Address, Bump: d.Bump})
}

func (s *Server) getMemory(w http.ResponseWriter, r *http.Request) {
	h, ok := hashParam(w, r)
	if !ok {
		return
	}
	prog := s.engine.Program()

	record, err := prog.LoadMemory(r.Context(), s.engine.Store(), h)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	d, err := prog.Scheme().Memory(h)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, memoryResponse{
		Address:     d.Address,
		ContentHash: record.ContentHash,
		Owner:       record.Owner,
		CreatedAt:   record.CreatedAt,
	})
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.engine.Store().ReadReceipt(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, string(program.ErrCodeNotFound), "no such transaction")
		return
	}
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) initialize(w http.ResponseWriter, r *http.Request) {
	s.execute(w, r, ir.Initialize())
}

func (s *Server) storeMemory(w http.ResponseWriter, r *http.Request) {
	var req storeMemoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.execute(w, r, ir.StoreMemory(req.Hash))
}

func (s *Server) verifyMemory(w http.ResponseWriter, r *http.Request) {
	h, ok := hashParam(w, r)
	if !ok {
		return
	}
	s.execute(w, r, ir.VerifyMemory(h))
}

func (s *Server) reward(w http.ResponseWriter, r *http.Request) {
	if !s.hasMint {
		writeError(w, http.StatusServiceUnavailable, "NO_REWARD_MINT", "reward mint not configured")
		return
	}
	var req rewardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	args, err := s.engine.Program().RewardAccounts(s.mint, req.Recipient, req.Amount)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.execute(w, r, ir.RewardMiner(args))
}

// execute submits ix signed by the authenticated signer and writes the
// receipt. Failed receipts are still receipts; only the status differs.
func (s *Server) execute(w http.ResponseWriter, r *http.Request, ix ir.Instruction) {
	signer, requestID, ok := authFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "no authenticated signer")
		return
	}

	tx, err := ir.NewTransaction(requestID, ix, signer)
	if err != nil {
		writeError(w, http.StatusBadRequest, string(engine.ErrCodeInvalidTransaction), err.Error())
		return
	}

	receipt, err := s.engine.SubmitAndWait(r.Context(), tx)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, receiptStatus(receipt), receipt)
}

func receiptStatus(receipt ir.Receipt) int {
	if receipt.OK() {
		return http.StatusOK
	}
	return programErrorStatus(program.ErrorCode(receipt.ErrorCode))
}

func programErrorStatus(code program.ErrorCode) int {
	switch code {
	case program.ErrCodeAlreadyExists:
		return http.StatusConflict
	case program.ErrCodeNotFound:
		return http.StatusNotFound
	}
	return http.StatusUnprocessableEntity
}

// writeFailure maps an error returned outside a receipt.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	if code := program.CodeOf(err); code != "" {
		writeError(w, programErrorStatus(code), string(code), err.Error())
		return
	}

	var re *engine.RuntimeError
	if errors.As(err, &re) {
		status := http.StatusBadRequest
		switch re.Code {
		case engine.ErrCodeDuplicateTransaction:
			status = http.StatusConflict
		case engine.ErrCodeInvalidSignature:
			status = http.StatusUnauthorized
		case engine.ErrCodeStopped:
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, string(re.Code), re.Message)
		return
	}

	s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
}

func hashParam(w http.ResponseWriter, r *http.Request) (ir.Hash, bool) {
	h, err := ir.ParseHash(chi.URLParam(r, "hash"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return ir.Hash{}, false
	}
	return h, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body: "+err.Error())
		return false
	}
	return true
}
