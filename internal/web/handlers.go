package web

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Klingon-tech/asset-minter/config"
	"github.com/Klingon-tech/asset-minter/internal/asset"
	"github.com/Klingon-tech/asset-minter/internal/history"
	"github.com/Klingon-tech/asset-minter/internal/session"
)

// back sends the browser to the page after a form post.
func back(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	// Offer before snapshotting so the page reflects the hand-out.
	offered, _ := sess.Offer()
	data := s.page(r.Context(), sess.Snapshot().View(), offered)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error().Err(err).Msg("Render page")
	}
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	network, err := config.ParseNetwork(r.PostFormValue("network"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := sessionFrom(r).SwitchNetwork(network); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	back(w, r)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r).Connect(r.PostFormValue("address")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	back(w, r)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r).Disconnect(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	back(w, r)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	d, err := asset.ParseDescriptor(r.PostForm)
	if err != nil {
		sess.RejectForm(d, err)
		back(w, r)
		return
	}
	// Build failures are recorded on the session and shown on the page.
	_ = sess.Submit(r.Context(), s.builder, d)
	back(w, r)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	err := sessionFrom(r).Retry(r.Context(), s.builder)
	if errors.Is(err, session.ErrNoPending) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	back(w, r)
}

func (s *Server) handleSigned(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var blobs [][]byte
	for _, v := range r.PostForm["signed"] {
		b, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			http.Error(w, "signed: invalid base64", http.StatusBadRequest)
			return
		}
		blobs = append(blobs, b)
	}

	conf, err := sessionFrom(r).Complete(r.Context(), func(ctx context.Context, pending *asset.Transaction) (string, error) {
		receipt, err := s.relay.Submit(ctx, pending.Network, pending.ID, blobs)
		if err != nil {
			return "", err
		}
		return receipt.TxID, nil
	})
	switch {
	case errors.Is(err, session.ErrNoPending), errors.Is(err, session.ErrNotOffered):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		back(w, r)
		return
	}

	s.record(conf)
	back(w, r)
}

func (s *Server) handleDeclined(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r).Decline(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	back(w, r)
}

type txnResponse struct {
	TxID    string             `json:"txid"`
	Network config.NetworkType `json:"network"`
	Fields  []asset.Field      `json:"fields"`
	Txn     interface{}        `json:"txn"`
}

// handleTxnJSON dumps the pending transaction. The encoded bytes are left
// out; only the page offer carries them.
func (s *Server) handleTxnJSON(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r).Snapshot()
	if st.Pending == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": session.ErrNoPending.Error()})
		return
	}
	writeJSON(w, http.StatusOK, txnResponse{
		TxID:    st.Pending.ID,
		Network: st.Pending.Network,
		Fields:  st.Pending.Details(),
		Txn:     st.Pending.DetailsMap(),
	})
}

func (s *Server) handleHistoryJSON(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r).Snapshot()
	receipts, err := s.receipts(st)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, receipts)
}

func (s *Server) record(conf *session.Confirmation) {
	if s.history == nil || conf == nil {
		return
	}
	err := s.history.Put(history.Receipt{
		Network:     conf.Network,
		TxID:        conf.TxID,
		Sender:      conf.Sender,
		Asset:       conf.Asset,
		ConfirmedAt: conf.At,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("txid", conf.TxID).Msg("Failed to record receipt")
	}
}

func (s *Server) receipts(st session.State) ([]history.Receipt, error) {
	if s.history == nil || st.Address == "" {
		return []history.Receipt{}, nil
	}
	return s.history.List(st.Network, st.Address)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
