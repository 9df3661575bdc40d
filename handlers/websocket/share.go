package websocket

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"roomdrop-server/core"
	"roomdrop-server/rooms"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

type ackInvoker func(err error, payload map[string]any)

// Broadcaster delivers room events through the socket.io server. Emits
// are buffered per connection by engine.io, so one slow member cannot
// stall the room.
type Broadcaster struct {
	srv *socketio.Server
}

func NewBroadcaster(srv *socketio.Server) *Broadcaster {
	return &Broadcaster{srv: srv}
}

func (b *Broadcaster) Broadcast(roomID, event string, payload map[string]any) {
	if err := b.srv.To(socketio.Room(roomID)).Emit(event, payload); err != nil {
		logrus.WithFields(logrus.Fields{
			"room_id": roomID,
			"event":   event,
		}).WithError(err).Warn("Failed to emit room event")
	}
}

// NewServer builds the socket.io server with CORS for the configured
// frontend origin plus local development hosts.
func NewServer(allowedOrigin string, maxHTTPBufferSize int64) *socketio.Server {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(maxHTTPBufferSize)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	localhostOrigin := regexp.MustCompile(`^https?://(localhost|127\.0\.0\.1|\[::1\])(:\d+)?$`)
	origins := []any{localhostOrigin}
	if allowedOrigin != "" {
		origins = append(origins, allowedOrigin)
	}
	opts.SetCors(&types.Cors{
		Origin:      origins,
		Credentials: true,
	})

	return socketio.NewServer(nil, opts)
}

// RegisterHandlers wires the file-sharing events onto srv. Every
// inbound event is delegated to the coordinator; failures are reported
// only to the originating socket via acks and never leave a room in a
// half-updated state.
func RegisterHandlers(srv *socketio.Server, coord *rooms.Coordinator) {
	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}

		me := string(socket.Id())
		_ = socket.Emit("init-room")
		logrus.WithField("session_id", me).Info("Session connected")

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("join-room", func(datas ...any) {
			ack, args := extractAck(datas)

			var roomID string
			if len(args) > 0 {
				roomID, _ = args[0].(string)
			}

			if err := coord.Join(roomID, me); err != nil {
				respondWithAck(socket, ack, "join-room-ack", map[string]any{
					"status": "error",
					"error":  err.Error(),
				}, err)
				return
			}

			socket.Join(socketio.Room(roomID))
			logrus.WithFields(logrus.Fields{
				"session_id": me,
				"room_id":    roomID,
			}).Debug("Socket joined room")

			respondWithAck(socket, ack, "join-room-ack", map[string]any{
				"status": "ok",
				"roomId": roomID,
			}, nil)
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("file-upload", func(datas ...any) {
			ack, args := extractAck(datas)

			req, err := parseUploadArgs(args)
			if err != nil {
				respondWithAck(socket, ack, "file-upload-ack", map[string]any{
					"status": "error",
					"error":  err.Error(),
				}, err)
				return
			}

			ref, err := coord.Upload(context.Background(), req.roomID, me, req.data, req.fileName, req.fileType)
			if err != nil {
				respondWithAck(socket, ack, "file-upload-ack", map[string]any{
					"status": "error",
					"error":  uploadErrorMessage(err),
				}, err)
				return
			}

			respondWithAck(socket, ack, "file-upload-ack", map[string]any{
				"status":    "ok",
				"savedName": ref.Handle,
				"url":       "/uploads/" + ref.Handle,
			}, nil)
		})

		socket.On("disconnecting", func(datas ...any) {
			logrus.WithField("session_id", me).Info("Session disconnecting")
			coord.Disconnect(context.Background(), me)
		})

		socket.On("disconnect", func(datas ...any) {
			socket.RemoveAllListeners("")
		})
	})
}

type uploadRequest struct {
	roomID   string
	fileName string
	fileType string
	data     []byte
}

// parseUploadArgs decodes the file-upload payload:
// {file, fileName, fileType, roomId}. The file field arrives as raw
// bytes when the client sends an ArrayBuffer, but JSON transports turn
// it into a base64 string or a number array, so all three are accepted.
func parseUploadArgs(args []any) (*uploadRequest, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("upload payload is required")
	}

	payload, ok := args[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid upload payload")
	}

	req := &uploadRequest{}
	req.roomID, _ = payload["roomId"].(string)
	req.fileName, _ = payload["fileName"].(string)
	req.fileType, _ = payload["fileType"].(string)

	if req.fileName == "" {
		return nil, fmt.Errorf("file name is required")
	}

	data, err := decodeFileBytes(payload["file"])
	if err != nil {
		return nil, err
	}
	req.data = data

	return req, nil
}

func decodeFileBytes(v any) ([]byte, error) {
	switch data := v.(type) {
	case []byte:
		return data, nil
	case string:
		if i := strings.Index(data, "base64,"); i >= 0 {
			data = data[i+len("base64,"):]
		}
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("decode file bytes: %w", err)
		}
		return decoded, nil
	case []any:
		decoded := make([]byte, 0, len(data))
		for _, n := range data {
			f, ok := n.(float64)
			if !ok {
				return nil, fmt.Errorf("invalid byte array element")
			}
			decoded = append(decoded, byte(f))
		}
		return decoded, nil
	default:
		if buf, ok := v.(interface{ Bytes() []byte }); ok {
			return buf.Bytes(), nil
		}
		return nil, fmt.Errorf("file bytes are required")
	}
}

func uploadErrorMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrPayloadTooLarge):
		return "file exceeds the maximum upload size"
	case errors.Is(err, core.ErrNotAMember):
		return "join the room before uploading"
	case errors.Is(err, core.ErrRoomNotFound):
		return "room no longer exists"
	case errors.Is(err, core.ErrEmptyRoomID):
		return "room id is required"
	default:
		return "upload failed"
	}
}

func extractAck(datas []any) (ack ackInvoker, args []any) {
	if len(datas) == 0 {
		return nil, datas
	}

	ack = wrapAck(datas[len(datas)-1])
	if ack == nil {
		return nil, datas
	}

	return ack, datas[:len(datas)-1]
}

func wrapAck(candidate any) ackInvoker {
	if candidate == nil {
		return nil
	}

	value := reflect.ValueOf(candidate)
	if !value.IsValid() || value.Kind() != reflect.Func {
		return nil
	}

	typ := value.Type()
	return func(err error, payload map[string]any) {
		args := make([]reflect.Value, typ.NumIn())
		for i := range args {
			var arg any
			switch {
			case typ.NumIn() == 1:
				if err != nil {
					arg = err
				} else {
					arg = payload
				}
			case i == 0:
				arg = err
			case i == 1:
				arg = payload
			}
			args[i] = coerceValue(arg, typ.In(i))
		}
		value.Call(args)
	}
}

func coerceValue(value any, targetType reflect.Type) reflect.Value {
	if value == nil {
		return reflect.Zero(targetType)
	}

	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(targetType) {
		return rv
	}
	if rv.Type().ConvertibleTo(targetType) {
		return rv.Convert(targetType)
	}
	if targetType.Kind() == reflect.Interface && targetType.NumMethod() == 0 {
		return rv
	}
	if targetType.Kind() == reflect.String {
		return reflect.ValueOf(fmt.Sprint(value)).Convert(targetType)
	}

	return reflect.Zero(targetType)
}

func respondWithAck(socket *socketio.Socket, ack ackInvoker, event string, payload map[string]any, ackErr error) {
	if ack != nil {
		ack(ackErr, payload)
	}

	if event != "" && payload != nil {
		_ = socket.Emit(event, payload)
	}
}
