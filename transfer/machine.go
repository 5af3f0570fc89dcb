// Package transfer drives a single token transfer through its lifecycle:
// idle, simulating, awaiting_signature, pending, confirming, then success or
// error. The only way out of a terminal state is an explicit Reset.
package transfer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Zolldyk/TippinBit-sub000/clients"
	"github.com/Zolldyk/TippinBit-sub000/logger"
	"github.com/Zolldyk/TippinBit-sub000/metrics"
	"github.com/Zolldyk/TippinBit-sub000/storage"
	tbtypes "github.com/Zolldyk/TippinBit-sub000/types"
	"github.com/Zolldyk/TippinBit-sub000/utils"
)

// Machine is the transfer state machine. All mutation happens through its
// own transition logic in response to collaborator callbacks; the view layer
// only observes snapshots.
type Machine struct {
	chain  clients.ChainClient
	signer clients.WalletSigner
	store  storage.Store
	log    logger.Logger
	rec    metrics.Recorder

	decimals       int
	pollInterval   time.Duration
	receiptTimeout time.Duration
	displayRefresh time.Duration
	now            func() time.Time

	mu         sync.Mutex
	state      tbtypes.TransferState
	req        *tbtypes.TransferRequest
	simulated  bool
	txHash     string
	err        *tbtypes.TippinError
	startTime  time.Time
	pollCount  int
	advisory   bool
	attemptID  string
	generation uint64
	tickerStop chan struct{}
	subs       []chan tbtypes.TransferSnapshot
}

func NewMachine(chain clients.ChainClient, signer clients.WalletSigner, store storage.Store, cfg *tbtypes.Config, log logger.Logger, rec metrics.Recorder) *Machine {
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}

	return &Machine{
		chain:          chain,
		signer:         signer,
		store:          store,
		log:            log,
		rec:            rec,
		decimals:       cfg.TokenDecimals,
		pollInterval:   cfg.PollInterval,
		receiptTimeout: cfg.ReceiptTimeout,
		displayRefresh: cfg.DisplayRefresh,
		now:            time.Now,
		state:          tbtypes.StateIdle,
	}
}

// SetRequest records the user's amount and recipient. Valid inputs trigger
// speculative simulation immediately; send only requests the signature. Any
// input change discards the in-flight attempt. Invalid or non-positive
// amounts keep the machine idle.
func (m *Machine) SetRequest(ctx context.Context, amountDisplay, recipient string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearAttemptLocked()

	amountBase, err := utils.ParseAmount(amountDisplay, m.decimals)
	if err != nil {
		m.req = nil
		m.state = tbtypes.StateIdle
		m.emitLocked()
		return
	}
	if err := utils.ValidateRecipient(recipient); err != nil {
		m.req = nil
		m.state = tbtypes.StateIdle
		m.emitLocked()
		return
	}

	m.req = &tbtypes.TransferRequest{
		Recipient:     utils.ChecksumAddress(recipient),
		AmountDisplay: amountDisplay,
		AmountBase:    amountBase,
	}
	m.state = tbtypes.StateSimulating
	m.emitLocked()

	go m.simulate(ctx, m.generation, m.req)
}

func (m *Machine) simulate(ctx context.Context, gen uint64, req *tbtypes.TransferRequest) {
	started := m.now()
	err := m.chain.Simulate(ctx, req)
	m.rec.ObserveLatency("simulate", m.now().Sub(started), map[string]string{"outcome": metrics.Outcome(err)})

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return
	}

	if err != nil {
		m.failLocked(tbtypes.ErrSimulationFailed, err)
		return
	}

	m.simulated = true
	m.emitLocked()
}

// Send starts the signature and submission flow for the simulated request.
// It is a no-op unless simulation has completed for the current inputs.
// Errors are reported through state, never returned.
func (m *Machine) Send(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != tbtypes.StateSimulating || !m.simulated || m.req == nil {
		return
	}

	m.startTime = m.now()
	m.attemptID = uuid.NewString()
	m.state = tbtypes.StateAwaitingSignature
	m.emitLocked()

	go m.run(ctx, m.generation, m.req)
}

func (m *Machine) run(ctx context.Context, gen uint64, req *tbtypes.TransferRequest) {
	signed, err := m.signer.SignTransfer(ctx, req)
	if err != nil {
		m.handleSignError(ctx, gen, err)
		return
	}
	if !m.stillCurrent(gen) {
		return
	}

	txHash, err := m.chain.Submit(ctx, signed)
	if err != nil {
		m.transition(gen, func() { m.failLocked(tbtypes.ErrSubmissionFailed, err) })
		return
	}

	if !m.transition(gen, func() {
		m.txHash = txHash
		m.state = tbtypes.StatePending
		m.emitLocked()
	}) {
		return
	}

	// The receipt wait begins immediately after the network acknowledges
	// the hash.
	stop := make(chan struct{})
	if !m.transition(gen, func() {
		m.state = tbtypes.StateConfirming
		m.tickerStop = stop
		m.emitLocked()
	}) {
		return
	}
	go m.refreshDisplay(gen, stop)

	// No hard deadline here: the ceiling only drives the advisory, and a
	// late receipt must still land as success.
	receipt, err := m.chain.WaitForReceipt(ctx, txHash, clients.ReceiptWaitOptions{
		PollInterval: m.pollInterval,
	})
	if err != nil {
		m.transition(gen, func() { m.failLocked(tbtypes.ErrReceiptWaitFailed, err) })
		return
	}

	m.transition(gen, func() {
		m.state = tbtypes.StateSuccess
		m.txHash = receipt.TxHash
		m.stopTickerLocked()
		m.resetFailureCountLocked()
		m.rec.IncCounter("transfer", map[string]string{"outcome": "success"})
		m.log.Info("transfer confirmed", map[string]any{
			"txHash":  receipt.TxHash,
			"block":   receipt.BlockNumber,
			"attempt": m.attemptID,
		})
		m.emitLocked()
	})
}

// handleSignError special-cases user rejection: the machine resets to idle
// silently, with no visible error and no failure-counter increment, then
// resumes speculative simulation for the still-valid inputs.
func (m *Machine) handleSignError(ctx context.Context, gen uint64, err error) {
	m.transition(gen, func() {
		if isUserRejection(err) {
			m.rec.IncCounter("transfer", map[string]string{"outcome": "rejected"})
			m.log.Debug("signature request rejected", map[string]any{"attempt": m.attemptID})
			m.resetLocked()
			m.resumeSimulationLocked(ctx)
			return
		}
		m.failLocked(tbtypes.ErrSubmissionFailed, err)
	})
}

// resumeSimulationLocked re-enters simulating when a valid request is still
// present after a reset.
func (m *Machine) resumeSimulationLocked(ctx context.Context) {
	if m.req == nil {
		return
	}

	m.state = tbtypes.StateSimulating
	m.emitLocked()
	go m.simulate(ctx, m.generation, m.req)
}

// transition applies mutate under the lock if the attempt generation is
// still current. Late collaborator responses for a discarded attempt are
// dropped here.
func (m *Machine) transition(gen uint64, mutate func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation {
		return false
	}
	mutate()
	return true
}

// refreshDisplay recomputes the display poll counter from elapsed wall-clock
// time while confirming. The cadence is decoupled from the actual receipt
// polls on purpose.
func (m *Machine) refreshDisplay(gen uint64, stop chan struct{}) {
	ticker := time.NewTicker(m.displayRefresh)
	defer ticker.Stop()

	maxPolls := int(m.receiptTimeout / m.pollInterval)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		m.mu.Lock()
		if gen != m.generation || m.state != tbtypes.StateConfirming {
			m.mu.Unlock()
			return
		}

		elapsed := m.now().Sub(m.startTime)
		count := int(elapsed / m.pollInterval)
		advisory := count >= maxPolls

		if count != m.pollCount || advisory != m.advisory {
			m.pollCount = count
			m.advisory = advisory
			m.emitLocked()
		}
		m.mu.Unlock()
	}
}

// Reset returns the machine to idle from any state, clearing the attempt.
// With valid inputs still present, speculative simulation starts again.
func (m *Machine) Reset(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetLocked()
	m.resumeSimulationLocked(ctx)
}

// resetLocked clears txHash, error, startTime, and the poll counter, and
// invalidates outstanding collaborator responses.
func (m *Machine) resetLocked() {
	m.clearAttemptLocked()
	m.state = tbtypes.StateIdle
	m.emitLocked()
}

func (m *Machine) clearAttemptLocked() {
	m.generation++
	m.stopTickerLocked()
	m.simulated = false
	m.txHash = ""
	m.err = nil
	m.startTime = time.Time{}
	m.pollCount = 0
	m.advisory = false
	m.attemptID = ""
}

func (m *Machine) failLocked(code string, err error) {
	m.state = tbtypes.StateError
	m.err = toTippinError(code, err)
	m.stopTickerLocked()
	m.incrementFailureCountLocked()
	m.rec.IncCounter("transfer", map[string]string{"outcome": code})
	m.log.Warn("transfer failed", map[string]any{
		"code":    code,
		"error":   err.Error(),
		"attempt": m.attemptID,
	})
	m.emitLocked()
}

func (m *Machine) stopTickerLocked() {
	if m.tickerStop != nil {
		close(m.tickerStop)
		m.tickerStop = nil
	}
}

func (m *Machine) stillCurrent(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen == m.generation
}

// CanSend reports whether simulation has completed for the current inputs,
// i.e. Send would start an attempt instead of being a no-op.
func (m *Machine) CanSend() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == tbtypes.StateSimulating && m.simulated && m.req != nil
}

// State returns the current lifecycle state.
func (m *Machine) State() tbtypes.TransferState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Derived projections of state. No independent state of their own.
func (m *Machine) IsPending() bool    { return m.State() == tbtypes.StatePending }
func (m *Machine) IsConfirming() bool { return m.State() == tbtypes.StateConfirming }
func (m *Machine) IsSuccess() bool    { return m.State() == tbtypes.StateSuccess }
func (m *Machine) IsError() bool      { return m.State() == tbtypes.StateError }

// Snapshot returns the current state-machine output for the view layer.
func (m *Machine) Snapshot() tbtypes.TransferSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() tbtypes.TransferSnapshot {
	return tbtypes.TransferSnapshot{
		State:     m.state,
		TxHash:    m.txHash,
		Err:       m.err,
		StartTime: m.startTime,
		PollCount: m.pollCount,
		Advisory:  m.advisory,
		AttemptID: m.attemptID,
	}
}

// Subscribe registers a snapshot channel. Every relevant change re-derives
// and delivers a snapshot; slow consumers miss intermediate states rather
// than blocking transitions.
func (m *Machine) Subscribe() <-chan tbtypes.TransferSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan tbtypes.TransferSnapshot, 32)
	m.subs = append(m.subs, ch)
	return ch
}

func (m *Machine) emitLocked() {
	snap := m.snapshotLocked()
	for _, ch := range m.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Close discards the current attempt and stops internal timers.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generation++
	m.stopTickerLocked()
}

func isUserRejection(err error) bool {
	if errors.Is(err, clients.ErrUserRejected) {
		return true
	}
	var te *tbtypes.TippinError
	return errors.As(err, &te) && te.Code == tbtypes.ErrSignatureRejected
}

func toTippinError(code string, err error) *tbtypes.TippinError {
	var te *tbtypes.TippinError
	if errors.As(err, &te) {
		return te
	}
	return tbtypes.NewTippinError(code, err.Error())
}
