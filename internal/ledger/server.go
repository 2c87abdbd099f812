package ledger

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully-qualified name of the remote ledger service.
const ServiceName = "crowdfunding.BlockchainService"

const (
	methodGetBalance              = "GetBalance"
	methodAddWallet               = "AddWallet"
	methodGenerateAddOrganization = "GenerateAddOrganizationTx"
	methodGenerateProjectWallet   = "GenerateProjectWalletTx"
	methodPostTransaction         = "PostTransaction"
	methodGenerateInvest          = "GenerateInvestTx"
	methodGenerateMint            = "GenerateMintTx"
	methodGenerateBurnFrom        = "GenerateBurnFromTx"
	methodGenerateApproveBurn     = "GenerateApproveWithdrawTx"
	methodGetPortfolio            = "GetPortfolio"
	methodGetTransactions         = "GetTransactions"
	methodGetInvestmentsInProject = "GetInvestmentsInProject"
)

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// BlockchainServiceServer is the server side of the ledger protocol. The
// production service lives elsewhere; this interface lets tests and local
// simulators speak the same wire format.
type BlockchainServiceServer interface {
	GetBalance(context.Context, *WalletHashRequest) (*BalanceResponse, error)
	AddWallet(context.Context, *AddWalletRequest) (*TransactionResponse, error)
	GenerateAddOrganizationTx(context.Context, *CreateOrganizationRequest) (*TransactionResponse, error)
	GenerateProjectWalletTx(context.Context, *CreateProjectRequest) (*TransactionResponse, error)
	PostTransaction(context.Context, *PostTransactionRequest) (*PostTransactionResponse, error)
	GenerateInvestTx(context.Context, *InvestRequest) (*TransactionResponse, error)
	GenerateMintTx(context.Context, *MintRequest) (*TransactionResponse, error)
	GenerateBurnFromTx(context.Context, *WalletHashRequest) (*TransactionResponse, error)
	GenerateApproveWithdrawTx(context.Context, *ApproveBurnRequest) (*TransactionResponse, error)
	GetPortfolio(context.Context, *WalletHashRequest) (*PortfolioResponse, error)
	GetTransactions(context.Context, *WalletHashRequest) (*TransactionsResponse, error)
	GetInvestmentsInProject(context.Context, *InvestmentsInProjectRequest) (*TransactionsResponse, error)
}

func unary[Req, Resp any](name string, call func(BlockchainServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(BlockchainServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BlockchainServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(methodGetBalance, BlockchainServiceServer.GetBalance),
		unary(methodAddWallet, BlockchainServiceServer.AddWallet),
		unary(methodGenerateAddOrganization, BlockchainServiceServer.GenerateAddOrganizationTx),
		unary(methodGenerateProjectWallet, BlockchainServiceServer.GenerateProjectWalletTx),
		unary(methodPostTransaction, BlockchainServiceServer.PostTransaction),
		unary(methodGenerateInvest, BlockchainServiceServer.GenerateInvestTx),
		unary(methodGenerateMint, BlockchainServiceServer.GenerateMintTx),
		unary(methodGenerateBurnFrom, BlockchainServiceServer.GenerateBurnFromTx),
		unary(methodGenerateApproveBurn, BlockchainServiceServer.GenerateApproveWithdrawTx),
		unary(methodGetPortfolio, BlockchainServiceServer.GetPortfolio),
		unary(methodGetTransactions, BlockchainServiceServer.GetTransactions),
		unary(methodGetInvestmentsInProject, BlockchainServiceServer.GetInvestmentsInProject),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "blockchain_service.proto",
}

// RegisterBlockchainServiceServer attaches srv to s. The grpc.Server must be
// created with NewServer (or ForceServerCodec(Codec())).
func RegisterBlockchainServiceServer(s grpc.ServiceRegistrar, srv BlockchainServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

// NewServer builds a grpc.Server that speaks the ledger wire codec.
func NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ForceServerCodec(Codec()))
	return grpc.NewServer(opts...)
}
