package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const lineageFormatVersionCurrent = 1

// Encode serializes a lineage record. The layout is mirrored by the Lua
// rotation script; any change here needs the matching offset change there.
//
//	version(1) ulen(1) user elen(1) email state(1) hash(32)
//	createdAt(8) rotatedAt(8) expiresAt(8)
func Encode(l *Lineage) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(lineageFormatVersionCurrent)

	if len(l.UserID) == 0 || len(l.UserID) > 255 {
		return nil, errors.New("invalid userID length")
	}
	buf.WriteByte(byte(len(l.UserID)))
	buf.WriteString(l.UserID)

	if len(l.Email) > 255 {
		return nil, errors.New("email too long")
	}
	buf.WriteByte(byte(len(l.Email)))
	buf.WriteString(l.Email)

	buf.WriteByte(l.State)
	buf.Write(l.RefreshHash[:])

	if err := binary.Write(&buf, binary.BigEndian, l.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, l.RotatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, l.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func Decode(data []byte) (*Lineage, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != lineageFormatVersionCurrent {
		return nil, errors.New("invalid lineage version")
	}

	l := &Lineage{}

	userLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	userID := make([]byte, userLen)
	if _, err := io.ReadFull(reader, userID); err != nil {
		return nil, err
	}
	l.UserID = string(userID)

	emailLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	email := make([]byte, emailLen)
	if _, err := io.ReadFull(reader, email); err != nil {
		return nil, err
	}
	l.Email = string(email)

	state, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	l.State = state

	if _, err := io.ReadFull(reader, l.RefreshHash[:]); err != nil {
		return nil, err
	}

	if err := binary.Read(reader, binary.BigEndian, &l.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &l.RotatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &l.ExpiresAt); err != nil {
		return nil, err
	}

	return l, nil
}
