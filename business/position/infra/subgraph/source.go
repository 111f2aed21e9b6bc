// Package subgraph reads pool and farm position histories from the indexed
// dataset.
package subgraph

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"

	"github.com/SimpleFi-finance/defi-analytics/business/position/app"
	"github.com/SimpleFi-finance/defi-analytics/business/position/domain"
	"github.com/SimpleFi-finance/defi-analytics/internal/apm"
	"github.com/SimpleFi-finance/defi-analytics/internal/apperror"
	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
	"github.com/SimpleFi-finance/defi-analytics/internal/subgraph"
)

const tracerName = "position-subgraph"

var _ app.PositionSource = (*Source)(nil)

type rawTransaction struct {
	ID                 string   `json:"id"`
	TransactionHash    string   `json:"transactionHash"`
	BlockNumber        string   `json:"blockNumber"`
	Timestamp          string   `json:"timestamp"`
	TransactionType    string   `json:"transactionType"`
	InputTokenAmounts  []string `json:"inputTokenAmounts"`
	RewardTokenAmounts []string `json:"rewardTokenAmounts"`
	TransferredTo      *string  `json:"transferredTo"`
	TransferredFrom    *string  `json:"transferredFrom"`
}

type rawPosition struct {
	ID             string `json:"id"`
	AccountAddress string `json:"accountAddress"`
	History        []struct {
		Transaction rawTransaction `json:"transaction"`
	} `json:"history"`
}

// Source implements app.PositionSource over the pool and farm subgraphs.
type Source struct {
	pools  *subgraph.Client
	farms  *subgraph.Client
	log    logger.LoggerInterface
	tracer *apm.Tracer
}

func NewSource(pools, farms *subgraph.Client, log logger.LoggerInterface) *Source {
	return &Source{
		pools:  pools,
		farms:  farms,
		log:    log,
		tracer: apm.NewTracer(tracerName),
	}
}

// FetchRawPositions returns every closed fragment of market keyed by its
// parsed id.
func (s *Source) FetchRawPositions(ctx context.Context, market common.Address) (map[domain.FragmentID][]domain.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "position.fetch_raw", attribute.String("market", market.Hex()))
	defer span.End()

	out := make(map[domain.FragmentID][]domain.Transaction)
	err := subgraph.Paginate(ctx, s.pools, closedPositionsQuery, "positions",
		map[string]any{"market": strings.ToLower(market.Hex())},
		func(p rawPosition) string { return p.ID },
		func(page []rawPosition) error {
			for _, p := range page {
				id, err := domain.ParseFragmentID(p.ID)
				if err != nil {
					return apperror.New(apperror.CodeMalformedFragmentID,
						apperror.WithCause(err),
						apperror.WithContext(p.ID))
				}
				txs, err := decodeHistory(p)
				if err != nil {
					return err
				}
				out[id] = txs
			}
			s.log.Debug(ctx, "fetched position page",
				"market", market.Hex(), "page", len(page), "total", len(out))
			return nil
		})
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("fragments", len(out)))
	s.log.Info(ctx, "fetched closed positions", "market", market.Hex(), "fragments", len(out))
	return out, nil
}

// FetchFarmTransactions returns the history of every closed farm position
// in farmMarket, concatenated per account.
func (s *Source) FetchFarmTransactions(ctx context.Context, farmMarket string) (map[common.Address][]domain.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "position.fetch_farm", attribute.String("farm_market", farmMarket))
	defer span.End()

	out := make(map[common.Address][]domain.Transaction)
	count := 0
	err := subgraph.Paginate(ctx, s.farms, closedPositionsQuery, "positions",
		map[string]any{"market": farmMarket},
		func(p rawPosition) string { return p.ID },
		func(page []rawPosition) error {
			for _, p := range page {
				if !common.IsHexAddress(p.AccountAddress) {
					return apperror.New(apperror.CodeSubgraphResponseError,
						apperror.WithContextf("farm position %s: bad account %q", p.ID, p.AccountAddress))
				}
				txs, err := decodeHistory(p)
				if err != nil {
					return err
				}
				acc := common.HexToAddress(p.AccountAddress)
				out[acc] = append(out[acc], txs...)
				count += len(txs)
			}
			return nil
		})
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}

	s.log.Info(ctx, "fetched farm transactions",
		"farm_market", farmMarket, "accounts", len(out), "transactions", count)
	return out, nil
}

// FarmMarketForLPToken looks up the first farm market staking lp.
func (s *Source) FarmMarketForLPToken(ctx context.Context, lp common.Address) (domain.FarmMarket, bool, error) {
	var resp struct {
		Markets []struct {
			ID string `json:"id"`
		} `json:"markets"`
	}
	err := s.farms.Query(ctx, farmForLPTokenQuery,
		map[string]any{"lpToken": strings.ToLower(lp.Hex())}, &resp)
	if err != nil {
		return domain.FarmMarket{}, false, err
	}
	if len(resp.Markets) == 0 {
		return domain.FarmMarket{}, false, nil
	}

	fm, err := ParseFarmMarketID(resp.Markets[0].ID)
	if err != nil {
		return domain.FarmMarket{}, false, err
	}
	fm.LPToken = lp
	return fm, true, nil
}

// ParseFarmMarketID splits farmAddress-pid.
func ParseFarmMarketID(id string) (domain.FarmMarket, error) {
	addr, pid, ok := strings.Cut(id, "-")
	if !ok || !common.IsHexAddress(addr) {
		return domain.FarmMarket{}, apperror.New(apperror.CodeSubgraphResponseError,
			apperror.WithContextf("farm market id %q", id))
	}
	return domain.FarmMarket{
		ID:     id,
		Farm:   common.HexToAddress(addr),
		PoolID: pid,
	}, nil
}

func decodeHistory(p rawPosition) ([]domain.Transaction, error) {
	txs := make([]domain.Transaction, 0, len(p.History))
	for _, h := range p.History {
		tx, err := decodeTransaction(h.Transaction, p.AccountAddress)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeSubgraphResponseError, "position "+p.ID)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func decodeTransaction(raw rawTransaction, account string) (domain.Transaction, error) {
	typ, err := domain.ParseTransactionType(raw.TransactionType)
	if err != nil {
		return domain.Transaction{}, apperror.New(apperror.CodeUnknownTransaction,
			apperror.WithCause(err),
			apperror.WithContextf("tx %s", raw.ID))
	}
	block, err := strconv.ParseUint(raw.BlockNumber, 10, 64)
	if err != nil {
		return domain.Transaction{}, err
	}
	ts, err := strconv.ParseInt(raw.Timestamp, 10, 64)
	if err != nil {
		return domain.Transaction{}, err
	}

	tx := domain.Transaction{
		ID:                 raw.ID,
		Hash:               common.HexToHash(raw.TransactionHash),
		BlockNumber:        block,
		Timestamp:          time.Unix(ts, 0).UTC(),
		Type:               typ,
		Account:            common.HexToAddress(account),
		InputTokenAmounts:  raw.InputTokenAmounts,
		RewardTokenAmounts: raw.RewardTokenAmounts,
	}
	if raw.TransferredTo != nil {
		tx.TransferredTo = common.HexToAddress(*raw.TransferredTo)
	}
	if raw.TransferredFrom != nil {
		tx.TransferredFrom = common.HexToAddress(*raw.TransferredFrom)
	}
	return tx, nil
}
