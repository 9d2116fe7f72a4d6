package hub

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// ErrLocalVerb is returned for verbs that only make sense in process, such
// as register-interest whose payload carries a Go callback.
var ErrLocalVerb = errors.New("verb cannot be submitted over the wire")

// DecodePayload turns the JSON payload of a command submitted over the wire
// into the typed payload its verb expects.
func DecodePayload(verb Verb, raw json.RawMessage) (any, error) {
	var target any
	switch verb {
	case VerbQuit, VerbDisconnect, VerbRequestAgents:
		return nil, nil
	case VerbStatus:
		target = &StatusPayload{}
	case VerbSendMessage:
		target = &MessagePayload{}
	case VerbSubscribe:
		target = &SubscribePayload{}
	case VerbAuthorize, VerbDeny, VerbUnsubscribe,
		VerbRequestVCard, VerbRequestVersion, VerbRequestLast, VerbRequestTime, VerbFetchLogCount:
		target = &JIDPayload{}
	case VerbUpdateRosterItem:
		target = &RosterItemPayload{}
	case VerbRegisterAgent:
		target = &RegisterPayload{}
	case VerbAgentLogging, VerbUnsubscribeAgent, VerbRequestAgentInfo:
		target = &AgentPayload{}
	case VerbPublishVCard:
		target = &VCardPayload{}
	case VerbFetchLogRange:
		target = &LogRangePayload{}
	case VerbRegisterInterest:
		return nil, fmt.Errorf("%w: %s", ErrLocalVerb, verb)
	default:
		return nil, fmt.Errorf("unknown verb %q", verb)
	}
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", verb, err)
	}
	switch p := target.(type) {
	case *StatusPayload:
		return *p, nil
	case *MessagePayload:
		return *p, nil
	case *SubscribePayload:
		return *p, nil
	case *JIDPayload:
		return *p, nil
	case *RosterItemPayload:
		return *p, nil
	case *RegisterPayload:
		return *p, nil
	case *AgentPayload:
		return *p, nil
	case *VCardPayload:
		return *p, nil
	case *LogRangePayload:
		return *p, nil
	}
	return target, nil
}
