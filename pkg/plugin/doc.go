/*
Package plugin implements the extension mechanism of the workflow engine.

Plugins observe and influence the workflow lifecycle without the core ever
knowing they exist. Each plugin exposes a struct of optional typed hook
callbacks; the Registry dispatches them in priority order with two distinct
failure policies:

  - Validation (BeforePhaseTransition): any plugin error aborts the dispatch
    loop and blocks the in-progress transition. A plugin may legitimately
    veto a phase change.
  - Advisory (everything else): a plugin error is logged and dispatch
    continues with the next plugin and the last successfully-produced
    result. One mis-configured plugin cannot break baseline operation.

Content-transform hooks (AfterInstructionsGenerated, AfterPlanFileCreated)
chain: each plugin receives the accumulated text and returns a replacement
plus a changed flag, so pass-through never relies on sentinel values.
*/
package plugin
