package transfer

import "strconv"

// failureCountKey tracks consecutive non-rejection payment failures in the
// session store. The counter only feeds progressive help-content disclosure;
// it never changes state-machine behavior.
const failureCountKey = "tx_failure_count"

// helpThreshold is the failure count at which supplementary help content is
// shown.
const helpThreshold = 3

// FailureCount reads the session failure counter. Missing or malformed
// values count as zero.
func (m *Machine) FailureCount() int {
	if m.store == nil {
		return 0
	}

	raw, ok := m.store.Get(failureCountKey)
	if !ok {
		return 0
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ShowHelp reports whether repeated failures warrant supplementary help
// content.
func (m *Machine) ShowHelp() bool {
	return m.FailureCount() >= helpThreshold
}

func (m *Machine) incrementFailureCountLocked() {
	if m.store == nil {
		return
	}

	m.store.Set(failureCountKey, strconv.Itoa(m.FailureCount()+1))
}

func (m *Machine) resetFailureCountLocked() {
	if m.store == nil {
		return
	}

	m.store.Set(failureCountKey, "0")
}
