package subgraph

const transactionFields = `
      id
      transactionHash
      blockNumber
      timestamp
      transactionType
      inputTokenAmounts
      rewardTokenAmounts
      transferredTo
      transferredFrom`

// closedPositionsQuery pages through closed positions of a market with
// their transaction history.
const closedPositionsQuery = `query ($first: Int!, $lastID: String!, $market: String!) {
  positions(
    first: $first
    orderBy: id
    orderDirection: asc
    where: {market: $market, id_gt: $lastID, closed: true}
  ) {
    id
    accountAddress
    history(orderBy: timestamp, orderDirection: asc) {
      transaction {` + transactionFields + `
      }
    }
  }
}`

const farmForLPTokenQuery = `query ($lpToken: String!) {
  markets(where: {outputToken: $lpToken}) {
    id
  }
}`
