package p2p

// Command names the core node must handle (§6).
const (
	CmdVersion    = "version"
	CmdVerack     = "verack"
	CmdInv        = "inv"
	CmdGetData    = "getdata"
	CmdNotFound   = "notfound"
	CmdGetBlocks  = "getblocks"
	CmdGetHeaders = "getheaders"
	CmdHeaders    = "headers"
	CmdBlock      = "block"
	CmdTx         = "tx"
	CmdAddr       = "addr"
	CmdGetAddr    = "getaddr"
	CmdPing       = "ping"
	CmdPong       = "pong"
)
