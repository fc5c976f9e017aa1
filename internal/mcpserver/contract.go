package mcpserver

// OrderingContract explains how collection positions behave so LLM
// consumers can issue correct move_item calls.
const OrderingContract = `# Curator Ordering Contract

Every collection (articles, promotions, locations, projects, teams, doctors,
categories, banners, images, videos) is an ordered list.

## Positions

1. Positions are 1-based and contiguous: a collection of N items always holds
   exactly the positions 1..N.
2. New items are appended at position N+1.
3. Deleting an item shifts every later item up by one.
4. move_item places an item at the target position and shifts the items in
   between; the response is the full new order.
5. A position outside 1..N is rejected; nothing moves.

## Scopes

Some collections are scoped to a parent record, e.g. the images of one
location use scope "location:42". A move must name the scope of the item it
moves; moves never cross scopes.

## Search

search_items pages through options of one kind. Pages are 1-based; keep
requesting while has_more is true. An empty query lists everything.
`
