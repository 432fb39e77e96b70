package dashboard

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dj-oyu/vision-dash/pkg/types"
)

// Field numbers of the LiveEvent protobuf encoding.
const (
	fieldRunning       protowire.Number = 1
	fieldCamera        protowire.Number = 2
	fieldTab           protowire.Number = 3
	fieldError         protowire.Number = 4
	fieldHistoryLength protowire.Number = 5
	fieldPrediction    protowire.Number = 6
)

// Field numbers of the nested Prediction message.
const (
	fieldSetNum        protowire.Number = 1
	fieldNumObj        protowire.Number = 2
	fieldNumDifference protowire.Number = 3
	fieldColour        protowire.Number = 4
	fieldImg           protowire.Number = 5
)

func marshalLiveEvent(ev LiveEvent) []byte {
	var b []byte
	if ev.Running {
		b = protowire.AppendTag(b, fieldRunning, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	b = appendString(b, fieldCamera, ev.Camera)
	b = appendString(b, fieldTab, string(ev.Tab))
	b = appendString(b, fieldError, ev.Error)
	if ev.HistoryLength != 0 {
		b = protowire.AppendTag(b, fieldHistoryLength, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(ev.HistoryLength))
	}
	if ev.Prediction != nil {
		b = protowire.AppendTag(b, fieldPrediction, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalPrediction(*ev.Prediction))
	}
	return b
}

func marshalPrediction(p types.Prediction) []byte {
	var b []byte
	b = appendSint(b, fieldSetNum, p.SetNum)
	b = appendSint(b, fieldNumObj, p.NumObj)
	b = appendSint(b, fieldNumDifference, p.NumDifference)
	b = appendString(b, fieldColour, p.Colour)
	b = appendString(b, fieldImg, p.Img)
	return b
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendSint(b []byte, num protowire.Number, v int) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(int64(v)))
}

// unmarshalLiveEvent decodes marshalLiveEvent output. Unknown fields are skipped.
func unmarshalLiveEvent(b []byte) (LiveEvent, error) {
	var ev LiveEvent
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldRunning && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			ev.Running = v != 0
			return n, nil
		case num == fieldHistoryLength && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			ev.HistoryLength = int(v)
			return n, nil
		case num == fieldCamera && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			ev.Camera = v
			return n, nil
		case num == fieldTab && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			ev.Tab = Tab(v)
			return n, nil
		case num == fieldError && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			ev.Error = v
			return n, nil
		case num == fieldPrediction && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			p, err := unmarshalPrediction(v)
			if err != nil {
				return 0, err
			}
			ev.Prediction = &p
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return ev, err
}

func unmarshalPrediction(b []byte) (types.Prediction, error) {
	var p types.Prediction
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(b)
			value := int(protowire.DecodeZigZag(v))
			switch num {
			case fieldSetNum:
				p.SetNum = value
			case fieldNumObj:
				p.NumObj = value
			case fieldNumDifference:
				p.NumDifference = value
			}
			return n, nil
		}
		if typ == protowire.BytesType && (num == fieldColour || num == fieldImg) {
			v, n := protowire.ConsumeString(b)
			if num == fieldColour {
				p.Colour = v
			} else {
				p.Img = v
			}
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return p, err
}

// consumeFields walks a message, letting field consume each value.
func consumeFields(b []byte, field func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("decode tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		m, err := field(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return fmt.Errorf("decode field %d: %w", num, protowire.ParseError(m))
		}
		b = b[m:]
	}
	return nil
}
