package install

import "context"

// AgentChannel is a file transfer connection to the in-device agent
type AgentChannel interface {
	UploadFile(ctx context.Context, remotePath string, data []byte) error
	Disconnect() error
}

// ConsoleChannel is a shell connection to a device
type ConsoleChannel interface {
	SendCommand(ctx context.Context, command string) error
	Close() error
}

// Transport opens device channels
type Transport interface {
	ConnectAgent(ctx context.Context, descriptor string) (AgentChannel, error)
	ConnectConsole(ctx context.Context, instanceID string) (ConsoleChannel, error)
}
