/*
NAME
  callmeta.go

DESCRIPTION
  callmeta.go extracts CallMetadata from Resource, USignal and Broadcast
  PDUs, per spec.md §4.4.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mac

// tea variant names keyed by the 3-bit algorithm code in a USignal PDU,
// per spec.md §4.4.
var encryptionAlgoNames = map[uint8]string{
	1: "TEA1",
	2: "TEA2",
	3: "TEA3",
	4: "TEA4",
}

// CallMetadata derives call metadata from pdu, per spec.md §4.4. It
// returns nil if pdu's type carries no call metadata.
func (p *Parser) CallMetadata(pdu *PDU) *CallMetadata {
	switch pdu.Type {
	case Resource:
		return resourceCallMetadata(pdu)
	case USignal:
		return uSignalCallMetadata(pdu)
	case Broadcast:
		return p.broadcastCallMetadata()
	default:
		return nil
	}
}

func resourceCallMetadata(pdu *PDU) *CallMetadata {
	b := pdu.Payload
	if len(b) < 8 {
		return nil
	}
	m := &CallMetadata{}

	group := b[0]&0x80 != 0
	if group {
		m.CallType = "Group"
	} else {
		m.CallType = "Individual"
	}

	talkgroup := uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	m.TalkgroupID = &talkgroup

	channel := b[4] & 0x3F
	m.Channel = &channel

	m.EncryptionEnabled = b[5]&0x80 != 0
	m.Priority = (b[5] >> 2) & 0x0F

	callID := uint16(b[6])<<8 | uint16(b[7])
	callID &= 0x3FFF // 14 bits.
	m.CallIdentifier = &callID

	return m
}

func uSignalCallMetadata(pdu *PDU) *CallMetadata {
	b := pdu.Payload
	if len(b) < 8 {
		return nil
	}
	m := &CallMetadata{}

	src := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	m.SourceSSI = &src
	dst := uint32(b[3])<<16 | uint32(b[4])<<8 | uint32(b[5])
	m.DestSSI = &dst

	if b[6]&0x80 != 0 {
		m.CallType = "Voice"
	} else {
		m.CallType = "Data"
	}

	algoCode := (b[7] >> 4) & 0x07
	if name, ok := encryptionAlgoNames[algoCode]; ok {
		m.EncryptionEnabled = true
		m.EncryptionAlgorithm = name
	}

	return m
}

func (p *Parser) broadcastCallMetadata() *CallMetadata {
	mcc, mnc, _, ok := p.BroadcastState()
	if !ok {
		return nil
	}
	m := &CallMetadata{CallType: "Broadcast"}
	m.MCC = &mcc
	m.MNC = &mnc
	return m
}
