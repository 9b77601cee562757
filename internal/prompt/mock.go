package prompt

// Mock implements Prompter for testing. ConfirmFunc controls the answer;
// if nil, Confirm returns false.
type Mock struct {
	ConfirmFunc func(cfg ConfirmConfig) (bool, error)

	// Call tracking
	ConfirmCalls []ConfirmConfig
}

func (m *Mock) Confirm(cfg ConfirmConfig) (bool, error) {
	m.ConfirmCalls = append(m.ConfirmCalls, cfg)
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(cfg)
	}
	return false, nil
}
