package masking

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/pablo-flores/wa-3fecta/internal/domain/alarm"
	"github.com/pablo-flores/wa-3fecta/internal/masking"
)

// dialBufconn serves the service in memory and returns a connected client.
func dialBufconn(t *testing.T, service Service) MaskingServiceClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	RegisterMaskingServiceServer(server, NewServer(service))

	go func() {
		_ = server.Serve(lis)
	}()

	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
	})

	return NewMaskingServiceClient(conn)
}

// TestServiceDesc_Invoke calls the hand-written service over a real transport.
func TestServiceDesc_Invoke(t *testing.T) {
	t.Parallel()

	service := &fakeService{
		records: []alarm.Record{{alarm.FieldAlarmID: "A1", alarm.FieldState: "RAISED"}},
	}
	client := dialBufconn(t, service)

	deny := false

	response, err := client.FindMaskedAlarms(context.Background(), NewRequest(&deny))
	require.NoError(t, err)
	require.NotNil(t, service.allowDiskUse)
	require.False(t, *service.allowDiskUse)

	records, err := FromListValue(response)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "A1", records[0][alarm.FieldAlarmID])
}

// TestServiceDesc_Status carries the status code to the client.
func TestServiceDesc_Status(t *testing.T) {
	t.Parallel()

	client := dialBufconn(t, &fakeService{err: masking.ErrWorkingSetExceeded})

	_, err := client.FindMaskedAlarms(context.Background(), NewRequest(nil))
	require.Equal(t, codes.ResourceExhausted, status.Code(err))
}
