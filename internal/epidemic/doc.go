// Package epidemic integrates the SIR and SEIR compartmental models.
//
// Both systems conserve the total population N, so every solution is
// checked against that invariant after integration. Rates are expressed in
// the density-dependent form βSI/N; the mass-action form bSI used by the
// rumor and policy analogies converts through FromMassAction.
package epidemic
