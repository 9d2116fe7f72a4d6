package events

func generateMessage(in Input) (any, bool) {
	st := in.Stanza
	if st.Type() == "error" {
		return nil, false
	}
	body, subject := st.ChildText("body"), st.ChildText("subject")
	if body == "" && subject == "" {
		return nil, false
	}
	full, bare, resource := sender(in.Conn, st)
	msgType := st.Type()
	if msgType == "" {
		msgType = "normal"
	}
	thread := st.ChildText("thread")
	if thread != "" {
		in.Conn.Session(bare, thread).ReceivedThreadID = true
	}
	return Message{
		ID:        st.ID(),
		FullJID:   full,
		JID:       bare,
		Resource:  resource,
		Type:      msgType,
		Body:      body,
		Subject:   subject,
		Thread:    thread,
		Timestamp: delayStamp(st),
	}, true
}

func generateMessageError(in Input) (any, bool) {
	st := in.Stanza
	if st.Type() != "error" {
		return nil, false
	}
	_, bare, _ := sender(in.Conn, st)
	_, code := st.ErrorCondition()
	return MessageErrorData{
		JID:     bare,
		Code:    code,
		Message: st.ErrorText(),
		Body:    st.ChildText("body"),
	}, true
}
