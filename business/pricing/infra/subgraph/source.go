// Package subgraph implements app.ReserveSource over the pool subgraph.
package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"

	"github.com/SimpleFi-finance/defi-analytics/business/pricing/app"
	"github.com/SimpleFi-finance/defi-analytics/business/pricing/domain"
	"github.com/SimpleFi-finance/defi-analytics/internal/apm"
	"github.com/SimpleFi-finance/defi-analytics/internal/apperror"
	"github.com/SimpleFi-finance/defi-analytics/internal/asset"
	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
	"github.com/SimpleFi-finance/defi-analytics/internal/subgraph"
)

const tracerName = "reserves-subgraph"

var _ app.ReserveSource = (*Source)(nil)

const tokenDecimalsQuery = `query ($token: String!) {
  token(id: $token) {
    decimals
  }
}`

const ethPairQuery = `query ($token: String!, $weth: String!) {
  markets(first: 1, where: {inputTokens_contains: [$token, $weth]}) {
    id
  }
}`

// Source reads block-pinned pool balances from the pool subgraph.
type Source struct {
	client *subgraph.Client
	log    logger.LoggerInterface
	tracer *apm.Tracer
}

func NewSource(client *subgraph.Client, log logger.LoggerInterface) *Source {
	return &Source{
		client: client,
		log:    log,
		tracer: apm.NewTracer(tracerName),
	}
}

type marketBalances struct {
	InputTokenTotalBalances []string `json:"inputTokenTotalBalances"`
}

// reservesQuery pins one aliased market lookup per block.
func reservesQuery(blocks []uint64) string {
	var b strings.Builder
	b.WriteString("query ($market: String!) {\n")
	for _, block := range blocks {
		fmt.Fprintf(&b, "  %s: market(id: $market, block: {number: %d}) {\n    inputTokenTotalBalances\n  }\n",
			blockAlias(block), block)
	}
	b.WriteString("}")
	return b.String()
}

func blockAlias(block uint64) string {
	return "b" + strconv.FormatUint(block, 10)
}

// Reserves fetches all blocks in one query. A null market means the pool
// did not exist at that block.
func (s *Source) Reserves(ctx context.Context, pool common.Address, blocks []uint64) (map[uint64]domain.ReserveSnapshot, error) {
	out := make(map[uint64]domain.ReserveSnapshot, len(blocks))
	if len(blocks) == 0 {
		return out, nil
	}

	ctx, span := s.tracer.Start(ctx, "reserves.subgraph",
		attribute.String("pool", pool.Hex()),
		attribute.Int("blocks", len(blocks)),
	)
	defer span.End()

	var data map[string]*marketBalances
	err := s.client.Query(ctx, reservesQuery(blocks),
		map[string]any{"market": strings.ToLower(pool.Hex())}, &data)
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}

	for _, block := range blocks {
		m := data[blockAlias(block)]
		if m == nil {
			continue
		}
		snap, err := snapshotFromBalances(block, m.InputTokenTotalBalances)
		if err != nil {
			return nil, apperror.New(apperror.CodeMalformedBalance,
				apperror.WithCause(err),
				apperror.WithContextf("pool %s block %d", pool.Hex(), block))
		}
		out[block] = snap
	}

	span.SetAttributes(attribute.Int("snapshots", len(out)))
	return out, nil
}

func snapshotFromBalances(block uint64, balances []string) (domain.ReserveSnapshot, error) {
	if len(balances) != 2 {
		return domain.ReserveSnapshot{}, fmt.Errorf("want 2 balances, got %d", len(balances))
	}
	b0, err := asset.ParseBalance(balances[0])
	if err != nil {
		return domain.ReserveSnapshot{}, err
	}
	b1, err := asset.ParseBalance(balances[1])
	if err != nil {
		return domain.ReserveSnapshot{}, err
	}
	return domain.ReserveSnapshot{
		Block:    block,
		Token0:   b0.Token,
		Reserve0: b0.Raw,
		Token1:   b1.Token,
		Reserve1: b1.Raw,
	}, nil
}

// flexInt accepts a JSON number or a quoted number.
type flexInt int64

var _ json.Unmarshaler = (*flexInt)(nil)

func (f *flexInt) UnmarshalJSON(b []byte) error {
	n, err := strconv.ParseInt(string(bytes.Trim(b, `"`)), 10, 64)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// TokenDecimals looks up the token entity.
func (s *Source) TokenDecimals(ctx context.Context, token common.Address) (int32, bool, error) {
	var resp struct {
		Token *struct {
			Decimals *flexInt `json:"decimals"`
		} `json:"token"`
	}
	err := s.client.Query(ctx, tokenDecimalsQuery,
		map[string]any{"token": strings.ToLower(token.Hex())}, &resp)
	if err != nil {
		return 0, false, err
	}
	if resp.Token == nil || resp.Token.Decimals == nil {
		return 0, false, nil
	}
	d := int64(*resp.Token.Decimals)
	if d < 0 || d > 36 {
		s.log.Warn(ctx, "ignoring implausible token decimals", "token", token.Hex(), "decimals", d)
		return 0, false, nil
	}
	return int32(d), true, nil
}

// EthPair returns the first market holding both token and weth.
func (s *Source) EthPair(ctx context.Context, token, weth common.Address) (common.Address, bool, error) {
	var resp struct {
		Markets []struct {
			ID string `json:"id"`
		} `json:"markets"`
	}
	err := s.client.Query(ctx, ethPairQuery, map[string]any{
		"token": strings.ToLower(token.Hex()),
		"weth":  strings.ToLower(weth.Hex()),
	}, &resp)
	if err != nil {
		return common.Address{}, false, err
	}
	if len(resp.Markets) == 0 || !common.IsHexAddress(resp.Markets[0].ID) {
		return common.Address{}, false, nil
	}
	return common.HexToAddress(resp.Markets[0].ID), true, nil
}
