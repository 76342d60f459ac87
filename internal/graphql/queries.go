package graphql

// Query texts for the Hydration storage-dictionary and whale indexers. The
// whale indexer serves block metadata, prices, and all four venues' per-block
// historical records; the generic endpoint is the fallback source for the
// basic asset list.

const assetCoreFields = `
  fragment AssetCoreFields on Asset {
    id
    symbol
    name
    decimals
  }
`

const assetExtendedFields = `
  fragment AssetExtendedFields on Asset {
    id
    assetRegistryId
    symbol
    name
    decimals
    assetType
  }
`

// QueryLatestBlock resolves the chain's current head height.
const QueryLatestBlock = `
  query GetLatestBlock {
    assetHistoricalData(
      first: 1
      orderBy: PARA_BLOCK_HEIGHT_DESC
    ) {
      nodes {
        paraBlockHeight
      }
    }
  }
`

// QueryAllAssets loads the full asset registry from the whale indexer.
const QueryAllAssets = assetExtendedFields + `
  query GetAllAssets {
    assets(first: 2000) {
      nodes {
        ...AssetExtendedFields
      }
    }
  }
`

// QueryBasicAssets is the generic-endpoint fallback; it lacks registry ids.
const QueryBasicAssets = assetCoreFields + `
  query GetAssets {
    assets(first: 1000) {
      nodes {
        ...AssetCoreFields
        assetType
      }
    }
  }
`

// QueryPricesAtBlock returns every asset's USD price record at one height.
const QueryPricesAtBlock = assetCoreFields + `
  query GetAssetsFromBlock($blockHeight: Int!) {
    assetHistoricalData(
      filter: { paraBlockHeight: { equalTo: $blockHeight } }
    ) {
      nodes {
        assetId
        assetRegistryId
        usdPriceNormalised
        asset {
          ...AssetCoreFields
        }
      }
    }
  }
`

// QueryOmnipoolAtBlock returns the omnipool's per-asset state at one height.
const QueryOmnipoolAtBlock = assetCoreFields + `
  query GetOmnipoolFromBlock($blockHeight: Int!) {
    omnipoolAssetHistoricalData(
      filter: { paraBlockHeight: { equalTo: $blockHeight } }
    ) {
      nodes {
        assetId
        freeBalance
        tvlInRefAssetNorm
        asset {
          ...AssetCoreFields
        }
      }
    }
  }
`

// QueryStableswapAtBlock returns stable-swap pools with nested per-asset
// records at one height.
const QueryStableswapAtBlock = assetCoreFields + `
  query GetStablepoolsFromBlock($blockHeight: Int!) {
    stableswapHistoricalData(
      filter: { paraBlockHeight: { equalTo: $blockHeight } }
    ) {
      nodes {
        poolId
        tvlTotalInRefAssetNorm
        pool {
          shareToken {
            ...AssetCoreFields
          }
        }
        stableswapAssetHistoricalDataByPoolHistoricalDataId {
          nodes {
            assetId
            freeBalance
            tvlInRefAssetNorm
            asset {
              ...AssetCoreFields
            }
          }
        }
      }
    }
  }
`

// QueryXYKAtBlock returns constant-product pools at one height, filtered at
// the source to pools above the minimum reported TVL.
const QueryXYKAtBlock = assetCoreFields + `
  query GetXYKPoolsFromBlock($blockHeight: Int!, $minTvl: BigFloat!) {
    xykpoolHistoricalData(
      filter: {
        paraBlockHeight: { equalTo: $blockHeight },
        tvlInRefAssetNorm: { greaterThan: $minTvl }
      }
    ) {
      nodes {
        poolId
        assetAId
        assetBId
        assetABalance
        assetBBalance
        tvlInRefAssetNorm
        assetA {
          ...AssetCoreFields
        }
        assetB {
          ...AssetCoreFields
        }
      }
    }
  }
`

// QueryMoneyMarketAtBlock returns the lending reserves at or before one
// height, newest first.
const QueryMoneyMarketAtBlock = assetCoreFields + `
  query GetMoneyMarketFromBlock($blockHeight: Int!) {
    aavepoolHistoricalData(
      first: 10
      filter: { paraBlockHeight: { lessThanOrEqualTo: $blockHeight } }
      orderBy: PARA_BLOCK_HEIGHT_DESC
    ) {
      nodes {
        id
        tvlInRefAssetNorm
        aTokenTotalSupply
        paraBlockHeight
        pool {
          id
          reserveAsset {
            ...AssetCoreFields
          }
        }
      }
    }
  }
`

// QueryBlockByTimestamp finds the most recent block at or before a target
// instant.
const QueryBlockByTimestamp = `
  query GetBlockByTimestamp($targetTime: Datetime!) {
    blocks(
      filter: {
        timestamp: {
          lessThanOrEqualTo: $targetTime
        }
      }
      first: 1
      orderBy: TIMESTAMP_DESC
    ) {
      nodes {
        height
        timestamp
      }
    }
  }
`

// QueryBlockByHeight resolves one block's timestamp.
const QueryBlockByHeight = `
  query GetBlockByHeight($blockHeight: Int!) {
    blocks(
      filter: { height: { equalTo: $blockHeight } }
      first: 1
    ) {
      nodes {
        height
        timestamp
      }
    }
  }
`

// Historical bulk queries, filtered to an exact block-height set.

const QueryOmnipoolHistorical = `
  query GetOmnipoolHistoricalByBlocks($blockHeights: [Int!]!) {
    omnipoolAssetHistoricalData(
      filter: { paraBlockHeight: { in: $blockHeights } }
      orderBy: PARA_BLOCK_HEIGHT_ASC
    ) {
      nodes {
        assetId
        tvlInRefAssetNorm
        paraBlockHeight
      }
    }
  }
`

const QueryStableswapHistorical = `
  query GetStablepoolsHistoricalByBlocks($blockHeights: [Int!]!) {
    stableswapHistoricalData(
      filter: { paraBlockHeight: { in: $blockHeights } }
      orderBy: PARA_BLOCK_HEIGHT_ASC
    ) {
      nodes {
        tvlTotalInRefAssetNorm
        paraBlockHeight
        stableswapAssetHistoricalDataByPoolHistoricalDataId {
          nodes {
            assetId
            tvlInRefAssetNorm
          }
        }
      }
    }
  }
`

const QueryXYKHistorical = `
  query GetXYKHistoricalByBlocks($blockHeights: [Int!]!, $minTvl: BigFloat!) {
    xykpoolHistoricalData(
      filter: {
        paraBlockHeight: { in: $blockHeights },
        tvlInRefAssetNorm: { greaterThan: $minTvl }
      }
      orderBy: PARA_BLOCK_HEIGHT_ASC
    ) {
      nodes {
        assetAId
        assetBId
        tvlInRefAssetNorm
        paraBlockHeight
      }
    }
  }
`

const QueryMoneyMarketHistorical = `
  query GetMoneyMarketHistoricalByBlocks($blockHeights: [Int!]!) {
    aavepoolHistoricalData(
      filter: { paraBlockHeight: { in: $blockHeights } }
      orderBy: PARA_BLOCK_HEIGHT_ASC
    ) {
      nodes {
        tvlInRefAssetNorm
        paraBlockHeight
        pool {
          reserveAsset {
            id
          }
        }
      }
    }
  }
`
