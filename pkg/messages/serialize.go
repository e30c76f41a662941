package messages

import (
	"bytes"
	"fmt"
	"io"

	envelopefb "github.com/cbodonnell/memorymatch/flatbuffers/envelope"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/klauspost/compress/zstd"
)

func SerializeMessage(m *Message) ([]byte, error) {
	b, err := SerializeMessageFlatbuffer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize message: %v", err)
	}

	compressed := bytes.NewBuffer(nil)
	compWriter, err := zstd.NewWriter(compressed, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %v", err)
	}
	if _, err := compWriter.Write(b); err != nil {
		return nil, fmt.Errorf("failed to compress message: %v", err)
	}
	if err := compWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zstd writer: %v", err)
	}

	return compressed.Bytes(), nil
}

func DeserializeMessage(data []byte) (*Message, error) {
	compReader, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %v", err)
	}
	defer compReader.Close()
	b, err := io.ReadAll(compReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read decompressed message: %v", err)
	}

	message, err := DeserializeMessageFlatbuffer(b)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize message: %v", err)
	}

	return message, nil
}

func SerializeMessageFlatbuffer(m *Message) ([]byte, error) {
	if m.Round < 0 {
		return nil, fmt.Errorf("negative round %d", m.Round)
	}
	builder := flatbuffers.NewBuilder(256)

	senderID := builder.CreateString(m.SenderID)
	msgID := builder.CreateString(m.MsgID)
	messageType := builder.CreateString(m.Type)
	room := builder.CreateString(m.Room)
	payload := builder.CreateByteVector(m.Payload)

	envelopefb.EnvelopeStart(builder)
	envelopefb.EnvelopeAddSenderId(builder, senderID)
	envelopefb.EnvelopeAddMsgId(builder, msgID)
	envelopefb.EnvelopeAddType(builder, messageType)
	envelopefb.EnvelopeAddRoom(builder, room)
	envelopefb.EnvelopeAddSeq(builder, m.Seq)
	envelopefb.EnvelopeAddRound(builder, int32(m.Round))
	envelopefb.EnvelopeAddPayload(builder, payload)
	envelopeOffset := envelopefb.EnvelopeEnd(builder)
	builder.Finish(envelopeOffset)

	return builder.FinishedBytes(), nil
}

func DeserializeMessageFlatbuffer(b []byte) (m *Message, err error) {
	// the flatbuffers accessors panic on truncated input
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("malformed envelope: %v", r)
		}
	}()
	if len(b) < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("envelope too short: %d bytes", len(b))
	}

	fb := envelopefb.GetRootAsEnvelope(b, 0)
	m = &Message{
		SenderID: string(fb.SenderId()),
		MsgID:    string(fb.MsgId()),
		Type:     string(fb.Type()),
		Room:     string(fb.Room()),
		Seq:      fb.Seq(),
		Round:    int(fb.Round()),
	}
	if payload := fb.PayloadBytes(); len(payload) > 0 {
		m.Payload = append([]byte(nil), payload...)
	}
	return m, nil
}
