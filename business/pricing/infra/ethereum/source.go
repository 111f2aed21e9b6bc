// Package ethereum implements app.ReserveSource with historical contract
// calls against an archive node.
package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/SimpleFi-finance/defi-analytics/business/pricing/app"
	"github.com/SimpleFi-finance/defi-analytics/business/pricing/domain"
	"github.com/SimpleFi-finance/defi-analytics/internal/apm"
	"github.com/SimpleFi-finance/defi-analytics/internal/apperror"
	"github.com/SimpleFi-finance/defi-analytics/internal/circuitbreaker"
	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
)

const tracerName = "reserves-ethereum"

var _ app.ReserveSource = (*Source)(nil)

// ContractCaller is the subset of ethclient.Client used here.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Config for Source.
type Config struct {
	Factory     common.Address
	Concurrency int

	// Registerer receives the RPC collectors. Nil skips registration.
	Registerer prometheus.Registerer
}

// Source reads pair reserves at historical blocks.
type Source struct {
	client  ContractCaller
	factory common.Address
	limit   int

	pairABI    abi.ABI
	erc20ABI   abi.ABI
	factoryABI abi.ABI

	cb      *circuitbreaker.CircuitBreaker[[]byte]
	log     logger.LoggerInterface
	tracer  *apm.Tracer
	metrics *rpcMetrics

	mu     sync.Mutex
	tokens map[common.Address][2]common.Address
}

// NewSource creates a Source.
func NewSource(client ContractCaller, cfg Config, log logger.LoggerInterface) (*Source, error) {
	pairABI, err := abi.JSON(strings.NewReader(PairABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pair ABI: %w", err)
	}
	erc20ABI, err := abi.JSON(strings.NewReader(ERC20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 ABI: %w", err)
	}
	factoryABI, err := abi.JSON(strings.NewReader(FactoryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse factory ABI: %w", err)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	cbCfg := circuitbreaker.DefaultConfig("ethereum-reserves")
	cbCfg.OnStateChange = func(name, from, to string) {
		log.Warn(context.Background(), "rpc circuit breaker state change",
			"breaker", name, "from", from, "to", to)
	}

	return &Source{
		client:     client,
		factory:    cfg.Factory,
		limit:      cfg.Concurrency,
		pairABI:    pairABI,
		erc20ABI:   erc20ABI,
		factoryABI: factoryABI,
		cb:         circuitbreaker.New[[]byte](cbCfg),
		log:        log,
		tracer:     apm.NewTracer(tracerName),
		metrics:    newRPCMetrics(cfg.Registerer),
		tokens:     make(map[common.Address][2]common.Address),
	}, nil
}

// call packs method, executes it at block (nil for latest) and unpacks the
// result. An empty result means the contract had no code and returns nil
// outputs without error.
func (s *Source) call(ctx context.Context, contract abi.ABI, to common.Address, block *big.Int, method string, args ...any) ([]any, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", method, err)
	}

	start := time.Now()
	result, err := s.cb.Execute(func() ([]byte, error) {
		return s.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, block)
	})
	s.metrics.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	switch {
	case err != nil:
		s.metrics.calls.WithLabelValues(method, "error").Inc()
	case len(result) == 0:
		s.metrics.calls.WithLabelValues(method, "empty").Inc()
	default:
		s.metrics.calls.WithLabelValues(method, "ok").Inc()
	}
	if err != nil {
		if apperror.IsAppError(err) {
			return nil, err
		}
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContextf("%s on %s", method, to.Hex()))
	}
	if len(result) == 0 {
		return nil, nil
	}

	outputs, err := contract.Unpack(method, result)
	if err != nil {
		return nil, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContextf("decode %s from %s", method, to.Hex()))
	}
	return outputs, nil
}

// pairTokens resolves token0 and token1 of pool at block and remembers
// them, since they never change once the pair exists.
func (s *Source) pairTokens(ctx context.Context, pool common.Address, block *big.Int) ([2]common.Address, bool, error) {
	s.mu.Lock()
	t, ok := s.tokens[pool]
	s.mu.Unlock()
	if ok {
		return t, true, nil
	}

	out0, err := s.call(ctx, s.pairABI, pool, block, "token0")
	if err != nil || out0 == nil {
		return t, false, err
	}
	out1, err := s.call(ctx, s.pairABI, pool, block, "token1")
	if err != nil || out1 == nil {
		return t, false, err
	}

	t = [2]common.Address{out0[0].(common.Address), out1[0].(common.Address)}
	s.mu.Lock()
	s.tokens[pool] = t
	s.mu.Unlock()
	return t, true, nil
}

// Reserves calls getReserves at every block, up to Concurrency at once.
func (s *Source) Reserves(ctx context.Context, pool common.Address, blocks []uint64) (map[uint64]domain.ReserveSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "reserves.ethereum",
		attribute.String("pool", pool.Hex()),
		attribute.Int("blocks", len(blocks)),
	)
	defer span.End()

	var mu sync.Mutex
	out := make(map[uint64]domain.ReserveSnapshot, len(blocks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for _, block := range blocks {
		g.Go(func() error {
			snap, ok, err := s.reservesAt(gctx, pool, block)
			if err != nil || !ok {
				return err
			}
			mu.Lock()
			out[block] = snap
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.NoticeError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("snapshots", len(out)))
	return out, nil
}

func (s *Source) reservesAt(ctx context.Context, pool common.Address, block uint64) (domain.ReserveSnapshot, bool, error) {
	at := new(big.Int).SetUint64(block)

	tokens, ok, err := s.pairTokens(ctx, pool, at)
	if err != nil || !ok {
		return domain.ReserveSnapshot{}, false, err
	}

	outputs, err := s.call(ctx, s.pairABI, pool, at, "getReserves")
	if err != nil || outputs == nil {
		return domain.ReserveSnapshot{}, false, err
	}
	if len(outputs) < 2 {
		return domain.ReserveSnapshot{}, false, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithContextf("getReserves on %s returned %d values", pool.Hex(), len(outputs)))
	}

	return domain.ReserveSnapshot{
		Block:    block,
		Token0:   tokens[0],
		Reserve0: outputs[0].(*big.Int),
		Token1:   tokens[1],
		Reserve1: outputs[1].(*big.Int),
	}, true, nil
}

// TokenDecimals calls decimals() at the latest block.
func (s *Source) TokenDecimals(ctx context.Context, token common.Address) (int32, bool, error) {
	outputs, err := s.call(ctx, s.erc20ABI, token, nil, "decimals")
	if err != nil || outputs == nil {
		return 0, false, err
	}
	return int32(outputs[0].(uint8)), true, nil
}

// EthPair asks the factory for the token/WETH pair. The zero address means
// no pair.
func (s *Source) EthPair(ctx context.Context, token, weth common.Address) (common.Address, bool, error) {
	outputs, err := s.call(ctx, s.factoryABI, s.factory, nil, "getPair", token, weth)
	if err != nil || outputs == nil {
		return common.Address{}, false, err
	}
	pair := outputs[0].(common.Address)
	if pair == (common.Address{}) {
		return common.Address{}, false, nil
	}
	return pair, true, nil
}
