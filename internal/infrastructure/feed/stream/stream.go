// Package stream 流式 feed 共用的连接与读循环
package stream

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"tickboard/internal/domain"
)

const (
	dialTimeout  = 10 * time.Second
	readDeadline = 60 * time.Second
	pingEvery    = 25 * time.Second
)

// Dial 建立 WebSocket 连接，带拨号超时
func Dial(ctx context.Context, wsURL string) (*websocket.Conn, error) {
	cctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(cctx, wsURL, nil)
	return conn, err
}

// ReadLoop 持续读消息并回调，直到 ctx 取消或连接出错
// 周期性发 ping，收到数据或 pong 时顺延读超时
func ReadLoop(ctx context.Context, conn *websocket.Conn, onMsg func([]byte)) error {
	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	pingTicker := time.NewTicker(pingEvery)
	defer pingTicker.Stop()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
			onMsg(b)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case <-pingTicker.C:
			_ = conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
		}
	}
}

// Send 投递一条更新，ctx 取消时放弃并返回 false
// 消费端被撤掉后缓冲可能塞满，读循环不能卡死在投递上
func Send(ctx context.Context, out chan<- domain.Update, u domain.Update) bool {
	select {
	case out <- u:
		return true
	case <-ctx.Done():
		return false
	}
}

// Sleep 可被 ctx 打断的等待，返回是否睡满
func Sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
