package config

// Sushiswap pools analyzed by default.
var defaultPools = map[string]string{
	"dai_weth":   "0xc3d03e4f041fd4cd388c549ee2a29a9e5075882f",
	"ldo_weth":   "0xc558f600b34a5f69dd2f0d06cb8a88d829b7420a",
	"aave_weth":  "0xd75ea151a61d06868e31f8988d28dfe5e9df57b4",
	"usdc_weth":  "0x397ff1542f962076d0bfe58ea045ffa2d347aca0",
	"wbtc_weth":  "0xceff51756c56ceffca006cd410b03ffc46dd3a58",
	"usdt_weth":  "0x06da0fd433c1a5d7a4faa01111c044910a184553",
	"yfi_weth":   "0x088ee5007c98a9677165d78dd2109ae4a3d04d0c",
	"ilv_weth":   "0x6a091a3406e0073c3cd6340122143009adac0eda",
	"toke_weth":  "0xd4e7a6e2d03e4e48dfc27dd3f46df1c176647e38",
	"sushi_weth": "0x795065dcc9f64b5614c407a6efdc400da6221fb0",
	"bit_weth":   "0xe12af1218b4e9272e9628d7c7dc6354d137d024e",
	"alcx_weth":  "0xc3f279090a47e80990fe3a9c30d24cb117ef91a8",
	"punk_weth":  "0x0463a06fbc8bf28b3f120cd1bfc59483f099d332",
	"ygg_weth":   "0x99b42f2b49c395d2a77d973f6009abb5d67da343",
	"jpeg_weth":  "0xdb06a76733528761eda47d356647297bc35a98bd",
	"srm_weth":   "0x117d4288b3635021a3d612fe05a3cbf5c717fef2",
	"comp_weth":  "0x31503dcb60119a812fee820bb7042752019f2355",
	"ohm_dai":    "0x055475920a8c93cffb64d039a8205f7acc7722d3",
	"ohm_weth":   "0x69b81152c5a8d35a67b32a4d3772795d96cae4da",
	"wxrp_weth":  "0xa7a8edfda2b8bf1e5084e2765811effee21ef918",
	"crv_weth":   "0x58dc5a51fe44589beb22e8ce67720b5bc5378009",
	"radar_weth": "0x559ebe4e206e6b4d50e9bd3008cda7ce640c52cb",
	"metis_weth": "0xdab6d56915d36060c8d6cf29a7a84910da614603",
	"kp3r_weth":  "0xaf988aff99d3d0cb870812c325c588d8d8cb7de8",
	"ust_weth":   "0x8b00ee8606cc70c2dce68dea0cefe632cca0fb7b",
	"spell_weth": "0xb5de0c3753b6e1b4dba616db82767f17513e6d4e",
	"bond_weth":  "0x613c836df6695c10f0f4900528b6931441ac5d5a",
	"ren_weth":   "0x611cde65dea90918c0078ac0400a72b0d25b9bb1",
	"cream_weth": "0xf169cea51eb51774cf107c88309717dda20be167",
	"cvx_weth":   "0x05767d9ef41dc40689678ffca0608878fb3de906",
	"snx_weth":   "0xa1d7b2d891e3a1f9ef4bbc5be20630c2feb1c470",
	"mkr_weth":   "0xba13afecda9beb75de5c56bbaf696b880a5a50dd",
	"uni_weth":   "0xdafd66636e2561b0284edde37e42d192f2844d40",
}

var defaultGroups = map[string][]string{
	"top20_tvl": {
		"ILV_WETH", "USDC_WETH", "OHM_DAI", "USDT_WETH", "WBTC_WETH",
		"OHM_WETH", "SUSHI_WETH", "BIT_WETH", "TOKE_WETH", "ALCX_WETH",
		"AAVE_WETH", "DAI_WETH", "PUNK_WETH", "WXRP_WETH", "YFI_WETH",
	},
	"top20_volume": {
		"CRV_WETH", "ALCX_WETH", "RADAR_WETH", "METIS_WETH", "OHM_WETH",
		"DAI_WETH", "SUSHI_WETH", "YGG_WETH", "KP3R_WETH", "YFI_WETH",
		"UST_WETH", "WBTC_WETH", "SPELL_WETH", "BOND_WETH", "AAVE_WETH",
		"REN_WETH", "CREAM_WETH", "COMP_WETH",
	},
	"defi": {
		"CRV_WETH", "SUSHI_WETH", "YFI_WETH", "AAVE_WETH", "COMP_WETH",
		"CVX_WETH", "SNX_WETH", "MKR_WETH", "UNI_WETH",
	},
	"stablecoin": {"USDC_WETH", "USDT_WETH", "DAI_WETH"},
}
