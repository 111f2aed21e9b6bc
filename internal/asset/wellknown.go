package asset

import "github.com/ethereum/go-ethereum/common"

const ChainIDEthereum = 1

// ETHDecimals is the decimals of ether and WETH.
const ETHDecimals = 18

// Well-known token addresses on Ethereum mainnet
var (
	AddrWETH  = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	AddrUSDC  = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	AddrUSDT  = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	AddrDAI   = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	AddrWBTC  = common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599")
	AddrSUSHI = common.HexToAddress("0x6B3595068778DD592e39A122f4f5a5cF09C90fE2")
)

var (
	WETH  = NewToken(AddrWETH, "WETH", ETHDecimals)
	USDC  = NewToken(AddrUSDC, "USDC", 6)
	USDT  = NewToken(AddrUSDT, "USDT", 6)
	DAI   = NewToken(AddrDAI, "DAI", 18)
	WBTC  = NewToken(AddrWBTC, "WBTC", 8)
	SUSHI = NewToken(AddrSUSHI, "SUSHI", 18)
)

// DefaultRegistry returns a registry pre-populated with well-known tokens.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(WETH)
	r.Register(USDC)
	r.Register(USDT)
	r.Register(DAI)
	r.Register(WBTC)
	r.Register(SUSHI)
	return r
}
