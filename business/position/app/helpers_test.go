package app

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/SimpleFi-finance/defi-analytics/business/position/domain"
	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
)

// mockLogger implements logger.LoggerInterface and counts warnings.
type mockLogger struct {
	mu    sync.Mutex
	warns []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warns = append(m.warns, msg)
}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

var (
	account  = common.HexToAddress("0x0000000000000d9054f605ca65a2647c2b521422")
	market   = common.HexToAddress("0x397ff1542f962076d0bfe58ea045ffa2d347aca0")
	farm     = common.HexToAddress("0xc2edad668740f1aa35e4d8f227fb8e17dca888cd")
	stranger = common.HexToAddress("0x00000000000000000000000000000000000dead1")
	tokenA   = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	tokenB   = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
	sushi    = common.HexToAddress("0x6b3595068778dd592e39a122f4f5a5cf09c90fe2")
)

func fid(acc common.Address, seq uint64) domain.FragmentID {
	return domain.FragmentID{Account: acc, Market: market, Kind: "INVESTMENT", Seq: seq}
}

func hashOf(block uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(block))
}

func tx(typ domain.TransactionType, block uint64) domain.Transaction {
	return domain.Transaction{
		ID:          fmt.Sprintf("tx-%d-%s", block, typ),
		Hash:        hashOf(block),
		BlockNumber: block,
		Type:        typ,
		Account:     account,
		InputTokenAmounts: []string{
			tokenA + "|ERC20|100",
			tokenB + "|ERC20|100",
		},
	}
}

func out(block uint64, to common.Address) domain.Transaction {
	t := tx(domain.TransferOut, block)
	t.TransferredTo = to
	return t
}

func in(block uint64, from common.Address) domain.Transaction {
	t := tx(domain.TransferIn, block)
	t.TransferredFrom = from
	return t
}
