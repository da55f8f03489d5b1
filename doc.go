// Package vota is the client-side data access and session layer for the vota
// election administration API.
//
// Sessions:
//   - The API issues a signed bearer token at sign-in. DecodeToken reads its
//     claims segment without verifying the signature; verification stays with
//     the server and transport security.
//   - SessionStore holds the process-wide Session snapshot. It is constructed
//     once, restored from a CredentialStore by Initialize, and replaced
//     wholesale by SessionService on sign-in and sign-out. Listeners registered
//     with Subscribe get the latest snapshot immediately and every later one in
//     publication order.
//
// Requests:
//   - Gateway attaches JSON and bearer headers from the current session, sends
//     one HTTP exchange per call and classifies failures into ApiErrors
//     (see IsAPIError). Transport failures surface as ErrNetwork.
//   - ElectionClient, BallotClient and UserClient are thin tables of Endpoint
//     values executed by Gateway.Do. Responses pass through the date reviver
//     (ReviveDates) before they are decoded into typed records.
package vota
